package core

// Power bounds and step sizes for the reference scenario, in dBm.
const (
	DefaultMinPowerDBm       = 10.0
	DefaultMaxPowerDBm       = 20.0
	DefaultInitialPowerDBm   = 16.0
	DefaultPowerStepDBm      = 2.0
	DefaultAggressiveStepDBm = 3.0
)

// PowerActuator applies a Decision to a transmit-power value. Results
// are always clamped to [MinPowerDBm, MaxPowerDBm], so a step near a
// bound lands exactly on the bound rather than overshooting it.
type PowerActuator struct {
	MinPowerDBm       float64 `json:"min_power_dbm"`
	MaxPowerDBm       float64 `json:"max_power_dbm"`
	StepDBm           float64 `json:"step_dbm"`
	AggressiveStepDBm float64 `json:"aggressive_step_dbm"`
}

// DefaultPowerActuator returns the reference configuration:
// bounds [10, 20] dBm, steps {normal 2, aggressive 3}.
func DefaultPowerActuator() PowerActuator {
	return PowerActuator{
		MinPowerDBm:       DefaultMinPowerDBm,
		MaxPowerDBm:       DefaultMaxPowerDBm,
		StepDBm:           DefaultPowerStepDBm,
		AggressiveStepDBm: DefaultAggressiveStepDBm,
	}
}

// Apply returns the power value after acting on the decision. Maintain
// returns the input unchanged, even when it lies outside the bounds.
func (a PowerActuator) Apply(d Decision, currentDBm float64) float64 {
	switch d {
	case DecisionMaintain:
		return currentDBm
	case DecisionIncreasePower:
		return a.clamp(currentDBm + a.StepDBm)
	case DecisionDecreasePower:
		return a.clamp(currentDBm - a.StepDBm)
	case DecisionIncreasePowerAggressive:
		return a.clamp(currentDBm + a.AggressiveStepDBm)
	default:
		return currentDBm
	}
}

func (a PowerActuator) clamp(p float64) float64 {
	if p > a.MaxPowerDBm {
		return a.MaxPowerDBm
	}
	if p < a.MinPowerDBm {
		return a.MinPowerDBm
	}
	return p
}
