package core

import "testing"

func TestPowerActuator_Steps(t *testing.T) {
	a := DefaultPowerActuator()

	if got := a.Apply(DecisionIncreasePower, 16); got != 18 {
		t.Fatalf("expected 16 + 2 = 18, got %v", got)
	}
	if got := a.Apply(DecisionDecreasePower, 16); got != 14 {
		t.Fatalf("expected 16 - 2 = 14, got %v", got)
	}
	if got := a.Apply(DecisionIncreasePowerAggressive, 16); got != 19 {
		t.Fatalf("expected 16 + 3 = 19, got %v", got)
	}
}

func TestPowerActuator_MaintainLeavesPowerUntouched(t *testing.T) {
	a := DefaultPowerActuator()
	for _, p := range []float64{10, 13.5, 16, 20, 25} {
		if got := a.Apply(DecisionMaintain, p); got != p {
			t.Fatalf("maintain must return input unchanged, got %v for %v", got, p)
		}
	}
}

func TestPowerActuator_ClampsAtUpperBound(t *testing.T) {
	a := DefaultPowerActuator()

	// A step from 19 lands exactly on the bound, not past it.
	got := a.Apply(DecisionIncreasePower, 19)
	if got != 20 {
		t.Fatalf("expected clamp to 20, got %v", got)
	}
	// Saturated: further increases stay put.
	if got = a.Apply(DecisionIncreasePower, got); got != 20 {
		t.Fatalf("expected saturation at 20, got %v", got)
	}
	if got = a.Apply(DecisionIncreasePowerAggressive, 19); got != 20 {
		t.Fatalf("aggressive step must clamp too, got %v", got)
	}
}

func TestPowerActuator_ClampsAtLowerBound(t *testing.T) {
	a := DefaultPowerActuator()
	if got := a.Apply(DecisionDecreasePower, 11); got != 10 {
		t.Fatalf("expected clamp to 10, got %v", got)
	}
	if got := a.Apply(DecisionDecreasePower, 10); got != 10 {
		t.Fatalf("expected saturation at 10, got %v", got)
	}
}

func TestPowerActuator_ResultAlwaysWithinBounds(t *testing.T) {
	a := DefaultPowerActuator()
	decisions := []Decision{DecisionIncreasePower, DecisionDecreasePower, DecisionIncreasePowerAggressive}
	for p := 10.0; p <= 20.0; p += 0.5 {
		for _, d := range decisions {
			got := a.Apply(d, p)
			if got < a.MinPowerDBm || got > a.MaxPowerDBm {
				t.Fatalf("Apply(%v, %v) = %v escaped [%v, %v]", d, p, got, a.MinPowerDBm, a.MaxPowerDBm)
			}
		}
	}
}
