package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/adaptive-wifi-sim/model"
)

// Scenario is a fully-resolved run description: the nodes and their
// trajectories, the monitored links, and every control-loop parameter.
// Zero values are filled with the reference defaults at load time.
type Scenario struct {
	Nodes []*model.Node
	Links []model.LinkSpec

	Control  ControlConfig
	Policy   DecisionPolicy
	Actuator PowerActuator
	PathLoss PathLossModel
	Traffic  TrafficConfig

	// InitialPowerDBm seeds links that do not declare their own.
	InitialPowerDBm float64
}

// internal JSON shapes – durations are written as plain seconds, so the
// wire format stays unexported and free to evolve.
type scenarioJSON struct {
	Nodes    []*model.Node    `json:"nodes"`
	Links    []model.LinkSpec `json:"links"`
	Control  *controlJSON     `json:"control,omitempty"`
	Policy   *DecisionPolicy  `json:"policy,omitempty"`
	Power    *powerJSON       `json:"power,omitempty"`
	PathLoss *PathLossModel   `json:"path_loss,omitempty"`
	Traffic  *trafficJSON     `json:"traffic,omitempty"`
}

type controlJSON struct {
	TickSeconds           float64 `json:"tick_seconds"`
	StartOffsetSeconds    float64 `json:"start_offset_seconds"`
	ObservationEndSeconds float64 `json:"observation_end_seconds"`
}

type powerJSON struct {
	MinPowerDBm       float64 `json:"min_power_dbm"`
	MaxPowerDBm       float64 `json:"max_power_dbm"`
	StepDBm           float64 `json:"step_dbm"`
	AggressiveStepDBm float64 `json:"aggressive_step_dbm"`
	InitialPowerDBm   float64 `json:"initial_power_dbm"`
}

type trafficJSON struct {
	RateMbps        float64 `json:"rate_mbps"`
	PacketSizeBytes int     `json:"packet_size_bytes"`
	StartSeconds    float64 `json:"start_seconds"`
	StopSeconds     float64 `json:"stop_seconds"`
}

// DefaultScenario reproduces the reference layout: two AP↔station
// pairs streaming to a common server, one station static at 5 m, the
// other walking 5 m → ~15.8 m → ~7 m along timed waypoints, with only
// the mobile pair under power control.
func DefaultScenario() *Scenario {
	return &Scenario{
		Nodes: []*model.Node{
			{ID: "ap1", Name: "AP1", Position: model.Position{X: 20, Y: 20}},
			{ID: "sta1", Name: "STA1-Static", Position: model.Position{X: 25, Y: 20}},
			{ID: "ap2", Name: "AP2", Position: model.Position{X: 20, Y: 40}},
			{ID: "sta2", Name: "STA2-Mobile", Waypoints: []model.Waypoint{
				{TimeS: 0, Position: model.Position{X: 25, Y: 40}},
				{TimeS: 5, Position: model.Position{X: 25, Y: 40}},
				{TimeS: 10, Position: model.Position{X: 25, Y: 55}},
				{TimeS: 15, Position: model.Position{X: 25, Y: 55}},
				{TimeS: 20, Position: model.Position{X: 25, Y: 45}},
			}},
		},
		Links: []model.LinkSpec{
			{ID: "ap1-sta1", Label: "AP1-STA1", APNodeID: "ap1", STANodeID: "sta1", FlowID: 1},
			{ID: "ap2-sta2", Label: "AP2-STA2", APNodeID: "ap2", STANodeID: "sta2", FlowID: 2, Controlled: true},
		},
		Control:         DefaultControlConfig(),
		Policy:          DefaultDecisionPolicy(),
		Actuator:        DefaultPowerActuator(),
		PathLoss:        DefaultPathLossModel(),
		Traffic:         DefaultTrafficConfig(),
		InitialPowerDBm: DefaultInitialPowerDBm,
	}
}

// LoadScenario reads a JSON scenario from r, fills omitted sections
// with the reference defaults, and validates the result. It fails only
// on JSON or structural errors.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	s := &Scenario{
		Nodes:           payload.Nodes,
		Links:           payload.Links,
		Control:         DefaultControlConfig(),
		Policy:          DefaultDecisionPolicy(),
		Actuator:        DefaultPowerActuator(),
		PathLoss:        DefaultPathLossModel(),
		Traffic:         DefaultTrafficConfig(),
		InitialPowerDBm: DefaultInitialPowerDBm,
	}

	if c := payload.Control; c != nil {
		if c.TickSeconds > 0 {
			s.Control.TickInterval = secondsToDuration(c.TickSeconds)
		}
		if c.StartOffsetSeconds >= 0 {
			s.Control.StartOffset = secondsToDuration(c.StartOffsetSeconds)
		}
		if c.ObservationEndSeconds > 0 {
			s.Control.ObservationEnd = secondsToDuration(c.ObservationEndSeconds)
		}
	}
	if p := payload.Policy; p != nil {
		s.Policy = *p
	}
	if p := payload.Power; p != nil {
		s.Actuator = PowerActuator{
			MinPowerDBm:       p.MinPowerDBm,
			MaxPowerDBm:       p.MaxPowerDBm,
			StepDBm:           p.StepDBm,
			AggressiveStepDBm: p.AggressiveStepDBm,
		}
		if p.InitialPowerDBm != 0 {
			s.InitialPowerDBm = p.InitialPowerDBm
		}
	}
	if p := payload.PathLoss; p != nil {
		s.PathLoss = *p
		if s.PathLoss.MinDistanceM <= 0 {
			s.PathLoss.MinDistanceM = DefaultMinDistanceM
		}
	}
	if t := payload.Traffic; t != nil {
		s.Traffic = TrafficConfig{
			RateMbps:        t.RateMbps,
			PacketSizeBytes: t.PacketSizeBytes,
			Start:           secondsToDuration(t.StartSeconds),
			Stop:            secondsToDuration(t.StopSeconds),
		}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return s, nil
}

// Validate checks the structural invariants a run depends on.
func (s *Scenario) Validate() error {
	if len(s.Links) == 0 {
		return fmt.Errorf("scenario declares no monitored links")
	}
	if s.Control.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if s.Control.ObservationEnd < s.Control.StartOffset {
		return fmt.Errorf("observation end %s precedes start offset %s",
			s.Control.ObservationEnd, s.Control.StartOffset)
	}
	if s.Actuator.MaxPowerDBm < s.Actuator.MinPowerDBm {
		return fmt.Errorf("power bounds inverted: [%v, %v]",
			s.Actuator.MinPowerDBm, s.Actuator.MaxPowerDBm)
	}

	nodes := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty ID")
		}
		if nodes[n.ID] {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		nodes[n.ID] = true
	}

	linkIDs := make(map[string]bool, len(s.Links))
	flowIDs := make(map[model.FlowID]bool, len(s.Links))
	for _, l := range s.Links {
		if l.ID == "" || l.Label == "" {
			return fmt.Errorf("link with empty ID or label")
		}
		if linkIDs[l.ID] {
			return fmt.Errorf("duplicate link %q", l.ID)
		}
		linkIDs[l.ID] = true
		if flowIDs[l.FlowID] {
			return fmt.Errorf("link %q reuses flow id %d", l.ID, l.FlowID)
		}
		flowIDs[l.FlowID] = true
		if !nodes[l.APNodeID] {
			return fmt.Errorf("link %q references unknown AP node %q", l.ID, l.APNodeID)
		}
		if !nodes[l.STANodeID] {
			return fmt.Errorf("link %q references unknown station node %q", l.ID, l.STANodeID)
		}
		initial := l.InitialPowerDBm
		if initial == 0 {
			initial = s.InitialPowerDBm
		}
		if initial < s.Actuator.MinPowerDBm || initial > s.Actuator.MaxPowerDBm {
			return fmt.Errorf("link %q initial power %v outside [%v, %v]",
				l.ID, initial, s.Actuator.MinPowerDBm, s.Actuator.MaxPowerDBm)
		}
	}
	return nil
}

// BuildKnowledgeBase materializes the scenario: registers every link
// with its initial power and seeds node positions at t=0.
func (s *Scenario) BuildKnowledgeBase() (*KnowledgeBase, error) {
	kb := NewKnowledgeBase()
	for _, spec := range s.Links {
		initial := spec.InitialPowerDBm
		if initial == 0 {
			initial = s.InitialPowerDBm
		}
		link := &MonitoredLink{
			ID:         spec.ID,
			Label:      spec.Label,
			APNodeID:   spec.APNodeID,
			STANodeID:  spec.STANodeID,
			FlowID:     spec.FlowID,
			Controlled: spec.Controlled,
			TxPowerDBm: initial,
		}
		if err := kb.AddLink(link); err != nil {
			return nil, fmt.Errorf("add link %q: %w", spec.ID, err)
		}
	}
	for _, n := range s.Nodes {
		NewMotionModel(n).UpdatePosition(0, n)
		kb.SetNodePosition(n.ID, Vec3FromPosition(n.Position))
	}
	return kb, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
