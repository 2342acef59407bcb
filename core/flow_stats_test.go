package core

import (
	"math"
	"testing"
	"time"
)

func TestFlowStatsTracker_FirstObservation(t *testing.T) {
	tr := NewFlowStatsTracker()
	d := tr.Collect(1, FlowCounters{RxBytes: 4096, TxPackets: 10, RxPackets: 8, DelaySum: 80 * time.Millisecond})
	if d.RxBytes != 4096 || d.TxPackets != 10 || d.RxPackets != 8 || d.DelaySum != 80*time.Millisecond {
		t.Fatalf("first observation should yield full counters as deltas, got %+v", d)
	}
}

func TestFlowStatsTracker_IntervalDeltas(t *testing.T) {
	tr := NewFlowStatsTracker()
	tr.Collect(1, FlowCounters{RxBytes: 1000, TxPackets: 10, RxPackets: 9, DelaySum: 90 * time.Millisecond})
	d := tr.Collect(1, FlowCounters{RxBytes: 2500, TxPackets: 25, RxPackets: 22, DelaySum: 230 * time.Millisecond})
	if d.RxBytes != 1500 {
		t.Fatalf("expected byte delta 1500, got %d", d.RxBytes)
	}
	if d.TxPackets != 15 || d.RxPackets != 13 {
		t.Fatalf("expected packet deltas 15/13, got %d/%d", d.TxPackets, d.RxPackets)
	}
	if d.DelaySum != 140*time.Millisecond {
		t.Fatalf("expected delay delta 140ms, got %v", d.DelaySum)
	}
}

func TestFlowStatsTracker_CounterReset(t *testing.T) {
	tr := NewFlowStatsTracker()
	tr.Collect(7, FlowCounters{RxBytes: 1000, TxPackets: 1000, RxPackets: 900})

	// The monitor restarted: cumulative values dropped below the
	// previous snapshot. The current value becomes the delta, never a
	// wrapped-around huge number.
	d := tr.Collect(7, FlowCounters{RxBytes: 200, TxPackets: 200, RxPackets: 150})
	if d.TxPackets != 200 {
		t.Fatalf("expected reset delta 200, got %d", d.TxPackets)
	}
	if d.RxBytes != 200 || d.RxPackets != 150 {
		t.Fatalf("expected reset deltas 200/150, got %d/%d", d.RxBytes, d.RxPackets)
	}

	// The reset snapshot becomes the new baseline.
	d = tr.Collect(7, FlowCounters{RxBytes: 500, TxPackets: 450, RxPackets: 400})
	if d.TxPackets != 250 || d.RxPackets != 250 || d.RxBytes != 300 {
		t.Fatalf("expected post-reset deltas 250/250/300, got %+v", d)
	}
}

func TestFlowStatsTracker_IndependentFlows(t *testing.T) {
	tr := NewFlowStatsTracker()
	tr.Collect(1, FlowCounters{TxPackets: 100})
	d := tr.Collect(2, FlowCounters{TxPackets: 40})
	if d.TxPackets != 40 {
		t.Fatalf("flow 2 baseline must be independent of flow 1, got %d", d.TxPackets)
	}
}

func TestDeriveTickMetrics_Throughput(t *testing.T) {
	// 625000 bytes in one second is exactly 5 Mbps.
	m := DeriveTickMetrics(FlowDeltas{RxBytes: 625000}, time.Second)
	if math.Abs(m.ThroughputMbps-5.0) > 1e-9 {
		t.Fatalf("expected 5 Mbps, got %v", m.ThroughputMbps)
	}
}

func TestDeriveTickMetrics_PDRAndLoss(t *testing.T) {
	m := DeriveTickMetrics(FlowDeltas{TxPackets: 100, RxPackets: 80}, time.Second)
	if m.PDRPercent != 80 {
		t.Fatalf("expected PDR 80, got %v", m.PDRPercent)
	}
	if m.LossPercent != 20 {
		t.Fatalf("expected loss 20, got %v", m.LossPercent)
	}
	if m.LossPercent != 100-m.PDRPercent {
		t.Fatalf("loss must complement PDR: %v vs %v", m.LossPercent, m.PDRPercent)
	}
}

func TestDeriveTickMetrics_PDRClampedAt100(t *testing.T) {
	// In-flight packets from the previous interval can land in this
	// one, pushing received above sent.
	m := DeriveTickMetrics(FlowDeltas{TxPackets: 100, RxPackets: 103}, time.Second)
	if m.PDRPercent != 100 {
		t.Fatalf("expected PDR clamped to 100, got %v", m.PDRPercent)
	}
	if m.LossPercent != 0 {
		t.Fatalf("expected loss 0, got %v", m.LossPercent)
	}
}

func TestDeriveTickMetrics_ZeroGuards(t *testing.T) {
	m := DeriveTickMetrics(FlowDeltas{}, time.Second)
	if m.ThroughputMbps != 0 || m.PDRPercent != 0 || m.DelayMs != 0 {
		t.Fatalf("idle interval should derive zeros, got %+v", m)
	}

	// Zero RxPackets must not divide.
	m = DeriveTickMetrics(FlowDeltas{TxPackets: 50, DelaySum: time.Second}, time.Second)
	if m.DelayMs != 0 {
		t.Fatalf("expected zero delay with no received packets, got %v", m.DelayMs)
	}
}

func TestDeriveTickMetrics_MeanDelay(t *testing.T) {
	m := DeriveTickMetrics(FlowDeltas{RxPackets: 4, DelaySum: 20 * time.Millisecond}, time.Second)
	if math.Abs(m.DelayMs-5.0) > 1e-9 {
		t.Fatalf("expected 5ms mean delay, got %v", m.DelayMs)
	}
}
