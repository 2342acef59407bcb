package core

import (
	"math"
	"testing"
)

func TestPathLossModel_KnownValue(t *testing.T) {
	m := DefaultPathLossModel()

	// At 10 m and 5 GHz: 20*log10(10) + 20*log10(5) + 32.44
	// = 20 + 13.9794 + 32.44 = 66.4194 dB.
	got := m.PathLossDB(10)
	want := 20.0 + 20*math.Log10(5) + 32.44
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected path loss %.4f dB, got %.4f", want, got)
	}
}

func TestPathLossModel_MonotonicWithDistance(t *testing.T) {
	m := DefaultPathLossModel()
	prev := m.PathLossDB(1)
	for _, d := range []float64{2, 5, 10, 20, 50} {
		pl := m.PathLossDB(d)
		if pl <= prev {
			t.Fatalf("path loss must grow with distance: %.2f at %vm not above %.2f", pl, d, prev)
		}
		prev = pl
	}
}

func TestPathLossModel_SignalStrength(t *testing.T) {
	m := DefaultPathLossModel()
	rssi := m.SignalStrength(10, 16)
	want := 16 - (20.0 + 20*math.Log10(5) + 32.44)
	if math.Abs(rssi-want) > 1e-9 {
		t.Fatalf("expected RSSI %.4f dBm, got %.4f", want, rssi)
	}

	// More power at the same distance means a stronger signal by exactly
	// the power difference.
	if diff := m.SignalStrength(10, 18) - rssi; math.Abs(diff-2) > 1e-9 {
		t.Fatalf("expected +2 dB from +2 dBm, got %+.4f", diff)
	}
}

func TestPathLossModel_ZeroDistanceClamped(t *testing.T) {
	m := DefaultPathLossModel()

	got := m.PathLossDB(0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("zero distance must clamp to the floor, got %v", got)
	}
	if want := m.PathLossDB(m.MinDistanceM); got != want {
		t.Fatalf("zero distance should equal the floor value %v, got %v", want, got)
	}
	if sub := m.PathLossDB(m.MinDistanceM / 10); sub != got {
		t.Fatalf("sub-floor distance should clamp identically, got %v vs %v", sub, got)
	}
}

func TestPathLossModel_ZeroFloorFallsBackToDefault(t *testing.T) {
	m := PathLossModel{FrequencyGHz: 5, ConstantDB: 32.44}
	got := m.PathLossDB(0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("unset floor must fall back to the default, got %v", got)
	}
}
