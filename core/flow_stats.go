package core

import (
	"time"

	"github.com/signalsfoundry/adaptive-wifi-sim/model"
)

// FlowCounters is a cumulative counter snapshot for one flow, as
// reported by the external flow monitor. Counters are monotonic except
// across a monitor-side reset.
type FlowCounters struct {
	RxBytes   uint64
	TxPackets uint64
	RxPackets uint64
	DelaySum  time.Duration
}

// FlowDeltas holds per-interval counter increments. Every field is
// guaranteed non-negative: a counter observed below its previous value
// is treated as restarted from zero and its current value becomes the
// delta.
type FlowDeltas struct {
	RxBytes   uint64
	TxPackets uint64
	RxPackets uint64
	DelaySum  time.Duration
}

// FlowStatsTracker converts cumulative flow counters into per-interval
// deltas. It owns the last-seen snapshot per flow; records are created
// on first observation and kept for the run.
type FlowStatsTracker struct {
	last map[model.FlowID]FlowCounters
}

// NewFlowStatsTracker creates an empty tracker.
func NewFlowStatsTracker() *FlowStatsTracker {
	return &FlowStatsTracker{last: make(map[model.FlowID]FlowCounters)}
}

// Collect returns the interval deltas for the given flow and stores
// current as the new last-seen snapshot. An unseen flow yields the full
// current values as its delta.
func (t *FlowStatsTracker) Collect(id model.FlowID, current FlowCounters) FlowDeltas {
	last, seen := t.last[id]
	t.last[id] = current
	if !seen {
		return FlowDeltas(current)
	}
	return FlowDeltas{
		RxBytes:   counterDelta(current.RxBytes, last.RxBytes),
		TxPackets: counterDelta(current.TxPackets, last.TxPackets),
		RxPackets: counterDelta(current.RxPackets, last.RxPackets),
		DelaySum:  durationDelta(current.DelaySum, last.DelaySum),
	}
}

// counterDelta handles one monotonic counter: a drop below the previous
// value means the counter restarted, so the current value is the delta.
func counterDelta(current, last uint64) uint64 {
	if current >= last {
		return current - last
	}
	return current
}

func durationDelta(current, last time.Duration) time.Duration {
	if current >= last {
		return current - last
	}
	return current
}

// TickMetrics are the per-interval derived measurements for one flow.
type TickMetrics struct {
	ThroughputMbps float64
	PDRPercent     float64
	LossPercent    float64
	DelayMs        float64
}

// DeriveTickMetrics computes throughput, delivery ratio, loss and mean
// delay from interval deltas. All divisions are guarded: zero TxPackets
// yields PDR 0 and zero RxPackets yields delay 0.
func DeriveTickMetrics(d FlowDeltas, interval time.Duration) TickMetrics {
	var m TickMetrics
	if secs := interval.Seconds(); secs > 0 {
		m.ThroughputMbps = float64(d.RxBytes) * 8 / secs / 1e6
	}
	if d.TxPackets > 0 {
		m.PDRPercent = float64(d.RxPackets) / float64(d.TxPackets) * 100
		// In-flight packets from the previous interval can arrive in
		// this one, pushing the ratio past 100.
		if m.PDRPercent > 100 {
			m.PDRPercent = 100
		}
	}
	m.LossPercent = 100 - m.PDRPercent
	if d.RxPackets > 0 {
		m.DelayMs = d.DelaySum.Seconds() / float64(d.RxPackets) * 1000
	}
	return m
}
