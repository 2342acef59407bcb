package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/adaptive-wifi-sim/model"
)

// FlowStatsSource supplies cumulative per-flow counters. The production
// collaborator is an external flow monitor; SimulatedFlowSource is the
// built-in stand-in for self-contained runs.
type FlowStatsSource interface {
	// FlowCounters returns the flow's cumulative counters and whether
	// the flow has been observed at all.
	FlowCounters(id model.FlowID) (FlowCounters, bool)
}

// TrafficConfig describes the synthetic constant-rate source that feeds
// each monitored link: a 5 Mbps on/off stream of 1024-byte packets
// active between Start and Stop in the reference scenario.
type TrafficConfig struct {
	RateMbps        float64       `json:"rate_mbps"`
	PacketSizeBytes int           `json:"packet_size_bytes"`
	Start           time.Duration `json:"-"`
	Stop            time.Duration `json:"-"`
}

// DefaultTrafficConfig returns the reference traffic profile.
func DefaultTrafficConfig() TrafficConfig {
	return TrafficConfig{
		RateMbps:        5,
		PacketSizeBytes: 1024,
		Start:           2 * time.Second,
		Stop:            20 * time.Second,
	}
}

type simFlowState struct {
	counters FlowCounters
	// offeredRemainder carries the fractional packet left over when the
	// per-interval offered load does not divide into whole packets.
	offeredRemainder float64
}

// SimulatedFlowSource synthesizes cumulative flow counters for every
// monitored link. It plays the role of the radio and the flow monitor
// together: each interval it reads the link's current transmit power
// from the knowledge base, derives the signal strength at the current
// node positions, and degrades delivery and delay as the signal
// weakens. Because it reads the stored power state, the actuator's
// adjustments feed back into the traffic it generates on later ticks.
type SimulatedFlowSource struct {
	kb       *KnowledgeBase
	pathLoss PathLossModel
	cfg      TrafficConfig

	prevElapsed time.Duration
	flows       map[model.FlowID]*simFlowState
}

// NewSimulatedFlowSource builds a source over the given knowledge base.
func NewSimulatedFlowSource(kb *KnowledgeBase, pathLoss PathLossModel, cfg TrafficConfig) *SimulatedFlowSource {
	return &SimulatedFlowSource{
		kb:       kb,
		pathLoss: pathLoss,
		cfg:      cfg,
		flows:    make(map[model.FlowID]*simFlowState),
	}
}

// FlowCounters implements FlowStatsSource.
func (s *SimulatedFlowSource) FlowCounters(id model.FlowID) (FlowCounters, bool) {
	st, ok := s.flows[id]
	if !ok {
		return FlowCounters{}, false
	}
	return st.counters, true
}

// Advance accumulates traffic for the interval between the previous
// call and elapsed. Call it once per tick, after positions have been
// updated and before the controller collects counters.
func (s *SimulatedFlowSource) Advance(elapsed time.Duration) {
	from := s.prevElapsed
	s.prevElapsed = elapsed

	activeSecs := overlapSeconds(from, elapsed, s.cfg.Start, s.cfg.Stop)
	if activeSecs <= 0 {
		return
	}

	for _, link := range s.kb.AllLinks() {
		st := s.flows[link.FlowID]
		if st == nil {
			st = &simFlowState{}
			s.flows[link.FlowID] = st
		}

		posA, okA := s.kb.GetNodePosition(link.APNodeID)
		posB, okB := s.kb.GetNodePosition(link.STANodeID)
		if !okA || !okB {
			continue
		}
		distance := posA.DistanceTo(posB)
		rssi := s.pathLoss.SignalStrength(distance, link.TxPowerDBm)

		offered := s.cfg.RateMbps*1e6*activeSecs/float64(s.cfg.PacketSizeBytes*8) + st.offeredRemainder
		txPackets := uint64(offered)
		st.offeredRemainder = offered - float64(txPackets)

		rxPackets := uint64(math.Round(float64(txPackets) * deliveryRatio(rssi)))
		if rxPackets > txPackets {
			rxPackets = txPackets
		}

		st.counters.TxPackets += txPackets
		st.counters.RxPackets += rxPackets
		st.counters.RxBytes += rxPackets * uint64(s.cfg.PacketSizeBytes)
		st.counters.DelaySum += time.Duration(rxPackets) * perPacketDelay(distance)
	}
}

// deliveryRatio is a soft curve from near-lossless delivery on a strong
// signal down to a 30% floor on a very weak one. The knees sit just
// outside the policy's RSSI thresholds so power adjustments visibly
// move the delivered throughput.
func deliveryRatio(rssiDBm float64) float64 {
	const (
		strong = -55.0
		weak   = -75.0
		floor  = 0.30
		peak   = 0.99
	)
	switch {
	case rssiDBm >= strong:
		return peak
	case rssiDBm <= weak:
		return floor
	default:
		return floor + (peak-floor)*(rssiDBm-weak)/(strong-weak)
	}
}

// perPacketDelay grows linearly with distance: a stand-in for the
// retry and queueing cost of a stretched link.
func perPacketDelay(distanceM float64) time.Duration {
	ms := 1.5 + 0.1*distanceM
	return time.Duration(ms * float64(time.Millisecond))
}

// overlapSeconds returns the length of (from, to] ∩ [start, stop).
func overlapSeconds(from, to, start, stop time.Duration) float64 {
	if from < start {
		from = start
	}
	if to > stop {
		to = stop
	}
	if to <= from {
		return 0
	}
	return (to - from).Seconds()
}
