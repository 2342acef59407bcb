package core

// Decision is the closed set of control actions the policy can take on
// a link's transmit power.
type Decision int

const (
	// DecisionMaintain leaves the transmit power unchanged.
	DecisionMaintain Decision = iota
	// DecisionIncreasePower steps the power up by the normal step.
	DecisionIncreasePower
	// DecisionDecreasePower steps the power down by the normal step.
	DecisionDecreasePower
	// DecisionIncreasePowerAggressive steps the power up by the
	// aggressive step. It is part of the vocabulary and honored by the
	// actuator, but the shipped policy never emits it: the escalation
	// rule that would trigger it is deliberately left unwired.
	DecisionIncreasePowerAggressive
)

// String returns the decision's log token.
func (d Decision) String() string {
	switch d {
	case DecisionMaintain:
		return "maintain"
	case DecisionIncreasePower:
		return "increase_power"
	case DecisionDecreasePower:
		return "decrease_power"
	case DecisionIncreasePowerAggressive:
		return "increase_power_change_channel"
	default:
		return "unknown"
	}
}

// DecisionPolicy maps a link's observed state to a Decision using
// priority-ordered thresholds. Distance and signal strength dominate:
// a far or very weak link always escalates, a moderately stretched link
// escalates only when throughput is also degraded, and power is shed
// only when the link is close, strong and over target.
type DecisionPolicy struct {
	// TargetThroughputMbps is the throughput the controlled link is
	// expected to sustain.
	TargetThroughputMbps float64 `json:"target_throughput_mbps"`

	// Rule 1: far or very weak signal.
	FarDistanceM float64 `json:"far_distance_m"`
	WeakRSSIdBm  float64 `json:"weak_rssi_dbm"`

	// Rule 2: moderate distance or softness, gated on degraded
	// throughput (below DegradedFraction of target).
	MidDistanceM     float64 `json:"mid_distance_m"`
	SoftRSSIdBm      float64 `json:"soft_rssi_dbm"`
	DegradedFraction float64 `json:"degraded_fraction"`

	// Rule 3: close, strong and over target.
	NearDistanceM float64 `json:"near_distance_m"`
	StrongRSSIdBm float64 `json:"strong_rssi_dbm"`
}

// DefaultDecisionPolicy returns the reference thresholds: target
// 4.5 Mbps (90% of the 5 Mbps offered rate), escalation beyond 15 m or
// below -65 dBm, and power shedding inside 7 m above -50 dBm.
func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		TargetThroughputMbps: 4.5,
		FarDistanceM:         15,
		WeakRSSIdBm:          -65,
		MidDistanceM:         10,
		SoftRSSIdBm:          -60,
		DegradedFraction:     0.9,
		NearDistanceM:        7,
		StrongRSSIdBm:        -50,
	}
}

// Decide maps the observed link state to a Decision. It is pure: the
// same inputs always produce the same decision, and the first matching
// rule wins regardless of later rules.
func (p DecisionPolicy) Decide(distanceM, throughputMbps, rssiDBm float64) Decision {
	switch {
	case distanceM > p.FarDistanceM || rssiDBm < p.WeakRSSIdBm:
		return DecisionIncreasePower
	case (distanceM > p.MidDistanceM || rssiDBm < p.SoftRSSIdBm) &&
		throughputMbps < p.DegradedFraction*p.TargetThroughputMbps:
		return DecisionIncreasePower
	case distanceM < p.NearDistanceM && rssiDBm > p.StrongRSSIdBm &&
		throughputMbps > p.TargetThroughputMbps:
		return DecisionDecreasePower
	default:
		return DecisionMaintain
	}
}
