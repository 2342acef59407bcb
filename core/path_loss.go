package core

import "math"

// Path-loss defaults for the 5 GHz reference scenario. The constant
// folds the reference distance and exponent of a log-distance model
// into the fixed free-space coefficients.
const (
	DefaultFrequencyGHz     = 5.0
	DefaultPathLossConstant = 32.44
	DefaultMinDistanceM     = 0.001
)

// PathLossModel estimates received signal strength from geometric
// distance and transmit power using a simplified log-distance formula.
// It is an approximation for deriving a monotonic distance-vs-quality
// relationship, not an engineering-grade link budget.
type PathLossModel struct {
	FrequencyGHz float64 `json:"frequency_ghz"`
	ConstantDB   float64 `json:"constant_db"`

	// MinDistanceM clamps degenerate geometry: log10 is undefined at
	// zero distance, so anything below this floor is lifted to it. The
	// resulting signal strength is a documented ceiling, not an error.
	MinDistanceM float64 `json:"min_distance_m,omitempty"`
}

// DefaultPathLossModel returns the 5 GHz reference configuration.
func DefaultPathLossModel() PathLossModel {
	return PathLossModel{
		FrequencyGHz: DefaultFrequencyGHz,
		ConstantDB:   DefaultPathLossConstant,
		MinDistanceM: DefaultMinDistanceM,
	}
}

// PathLossDB returns the estimated attenuation in dB at the given
// distance. Distance is clamped to MinDistanceM before the logarithm.
func (m PathLossModel) PathLossDB(distanceM float64) float64 {
	floor := m.MinDistanceM
	if floor <= 0 {
		floor = DefaultMinDistanceM
	}
	if distanceM < floor {
		distanceM = floor
	}
	return 20*math.Log10(distanceM) + 20*math.Log10(m.FrequencyGHz) + m.ConstantDB
}

// SignalStrength returns the estimated received power (RSSI-equivalent,
// dBm) for a transmitter at the given power and distance.
func (m PathLossModel) SignalStrength(distanceM, txPowerDBm float64) float64 {
	return txPowerDBm - m.PathLossDB(distanceM)
}
