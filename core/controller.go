package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/adaptive-wifi-sim/internal/logging"
)

// MetricSample is the immutable per-flow, per-tick record handed to the
// metric sink. Deltas carries the raw interval increments so the sink
// can build totals-based end-of-run aggregates.
type MetricSample struct {
	TimeS          float64
	Link           string
	DistanceM      float64
	ThroughputMbps float64
	PDRPercent     float64
	LossPercent    float64
	DelayMs        float64
	RSSIdBm        float64
	TxPowerDBm     float64
	Decision       Decision

	Deltas FlowDeltas
}

// MetricSink receives one sample per monitored link per tick.
type MetricSink interface {
	Record(sample MetricSample) error
}

// ControlMetrics receives control-loop measurements for export. The
// observability package provides the Prometheus implementation.
type ControlMetrics interface {
	ObserveTick(d time.Duration)
	RecordDecision(link, decision string)
	SetLinkGauges(link string, txPowerDBm, rssiDBm, throughputMbps, distanceM float64)
}

// ControlConfig bounds the observation window. The controller acts only
// on ticks whose offset lies in [StartOffset, ObservationEnd].
type ControlConfig struct {
	TickInterval   time.Duration
	StartOffset    time.Duration
	ObservationEnd time.Duration
}

// DefaultControlConfig returns the reference window: 1 s ticks from 2 s
// through 20 s.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		TickInterval:   time.Second,
		StartOffset:    2 * time.Second,
		ObservationEnd: 20 * time.Second,
	}
}

// AdaptiveController runs the link-quality control loop: per tick and
// per monitored link it converts cumulative counters into deltas,
// estimates distance and signal strength, lets the policy decide,
// actuates the power state of controlled links, and emits one metric
// sample. It is single-writer with respect to link power: each link is
// actuated at most once per tick, and a tick completes fully before the
// next one starts.
type AdaptiveController struct {
	kb       *KnowledgeBase
	source   FlowStatsSource
	sink     MetricSink
	tracker  *FlowStatsTracker
	pathLoss PathLossModel
	policy   DecisionPolicy
	actuator PowerActuator
	cfg      ControlConfig

	log     logging.Logger
	metrics ControlMetrics
	tracer  trace.Tracer
}

// NewAdaptiveController wires a controller over the given collaborators
// with the reference path-loss, policy and actuator configuration.
// Adjust the exported fields via the setters before the first tick.
func NewAdaptiveController(kb *KnowledgeBase, source FlowStatsSource, sink MetricSink, cfg ControlConfig, log logging.Logger) *AdaptiveController {
	if log == nil {
		log = logging.Noop()
	}
	return &AdaptiveController{
		kb:       kb,
		source:   source,
		sink:     sink,
		tracker:  NewFlowStatsTracker(),
		pathLoss: DefaultPathLossModel(),
		policy:   DefaultDecisionPolicy(),
		actuator: DefaultPowerActuator(),
		cfg:      cfg,
		log:      log,
		tracer:   trace.NewNoopTracerProvider().Tracer("controller"),
	}
}

// SetPathLoss overrides the path-loss model. Call before the first tick.
func (c *AdaptiveController) SetPathLoss(m PathLossModel) { c.pathLoss = m }

// SetPolicy overrides the decision policy. Call before the first tick.
func (c *AdaptiveController) SetPolicy(p DecisionPolicy) { c.policy = p }

// SetActuator overrides the power actuator. Call before the first tick.
func (c *AdaptiveController) SetActuator(a PowerActuator) { c.actuator = a }

// SetMetrics attaches a metrics exporter. Nil disables export.
func (c *AdaptiveController) SetMetrics(m ControlMetrics) { c.metrics = m }

// SetTracer attaches a tracer; each in-window tick becomes a span.
func (c *AdaptiveController) SetTracer(t trace.Tracer) {
	if t != nil {
		c.tracer = t
	}
}

// InWindow reports whether a tick at the given offset is observed.
func (c *AdaptiveController) InWindow(elapsed time.Duration) bool {
	return elapsed >= c.cfg.StartOffset && elapsed <= c.cfg.ObservationEnd
}

// Tick runs one full control pass at the given simulation offset. Ticks
// outside the observation window are ignored. The pass is synchronous
// and never blocks; the only errors it can surface come from the sink.
func (c *AdaptiveController) Tick(ctx context.Context, elapsed time.Duration) error {
	if !c.InWindow(elapsed) {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "controller.tick",
		trace.WithAttributes(attribute.Float64("sim.elapsed_s", elapsed.Seconds())))
	defer span.End()

	start := time.Now()
	for _, link := range c.kb.AllLinks() {
		if err := c.evaluateLink(ctx, link, elapsed); err != nil {
			return err
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveTick(time.Since(start))
	}
	return nil
}

// evaluateLink runs the full measurement and actuation chain for a
// single link. The signal strength and the recorded power both
// use the power value in force when the tick began; an adjustment made
// here is first visible to the next tick's estimate.
func (c *AdaptiveController) evaluateLink(ctx context.Context, link *MonitoredLink, elapsed time.Duration) error {
	counters, seen := c.source.FlowCounters(link.FlowID)
	if !seen {
		// The monitor has not classified the flow yet; treat its
		// counters as all-zero so the link still produces its row.
		counters = FlowCounters{}
	}
	deltas := c.tracker.Collect(link.FlowID, counters)
	derived := DeriveTickMetrics(deltas, c.cfg.TickInterval)

	posAP, okA := c.kb.GetNodePosition(link.APNodeID)
	posSTA, okB := c.kb.GetNodePosition(link.STANodeID)
	if !okA || !okB {
		c.log.Warn(ctx, "missing node position, using origin",
			logging.String("link", link.ID),
			logging.String("ap", link.APNodeID),
			logging.String("sta", link.STANodeID),
		)
	}
	distance := posAP.DistanceTo(posSTA)
	power := link.TxPowerDBm
	rssi := c.pathLoss.SignalStrength(distance, power)

	decision := DecisionMaintain
	if link.Controlled {
		decision = c.policy.Decide(distance, derived.ThroughputMbps, rssi)
		if decision != DecisionMaintain {
			newPower := c.actuator.Apply(decision, power)
			if err := c.kb.SetLinkTxPower(link.ID, newPower); err != nil {
				return fmt.Errorf("actuate link %q: %w", link.ID, err)
			}
			c.log.Info(ctx, "adjusted transmit power",
				logging.String("link", link.ID),
				logging.String("decision", decision.String()),
				logging.Any("power_dbm", newPower),
			)
		}
	}

	sample := MetricSample{
		TimeS:          elapsed.Seconds(),
		Link:           link.Label,
		DistanceM:      distance,
		ThroughputMbps: derived.ThroughputMbps,
		PDRPercent:     derived.PDRPercent,
		LossPercent:    derived.LossPercent,
		DelayMs:        derived.DelayMs,
		RSSIdBm:        rssi,
		TxPowerDBm:     power,
		Decision:       decision,
		Deltas:         deltas,
	}
	if err := c.sink.Record(sample); err != nil {
		return fmt.Errorf("record sample for link %q: %w", link.ID, err)
	}

	if c.metrics != nil {
		c.metrics.RecordDecision(link.Label, decision.String())
		c.metrics.SetLinkGauges(link.Label, power, rssi, derived.ThroughputMbps, distance)
	}
	c.log.Debug(ctx, "tick sample",
		logging.String("link", link.Label),
		logging.Any("distance_m", distance),
		logging.Any("throughput_mbps", derived.ThroughputMbps),
		logging.Any("rssi_dbm", rssi),
		logging.String("decision", decision.String()),
	)
	return nil
}
