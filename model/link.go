package model

// FlowID identifies a monitored traffic flow as assigned by the
// external flow monitor. It is opaque to the control loop.
type FlowID uint32

// LinkSpec declares one monitored AP↔station association. The set of
// monitored flows is fixed at scenario load time; nothing in the run
// path matches on addresses.
type LinkSpec struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	APNodeID  string `json:"ap_node"`
	STANodeID string `json:"sta_node"`
	FlowID    FlowID `json:"flow_id"`

	// Controlled marks a link whose transmit power is adjusted by the
	// decision policy. Uncontrolled links are observed and logged only.
	Controlled bool `json:"controlled"`

	// InitialPowerDBm seeds the link's transmit power state. Zero means
	// "use the scenario default".
	InitialPowerDBm float64 `json:"initial_power_dbm,omitempty"`
}
