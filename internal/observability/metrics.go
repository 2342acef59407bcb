package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ControlLoopCollector bundles Prometheus metrics for the adaptive
// control loop and implements core.ControlMetrics.
type ControlLoopCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal   prometheus.Counter
	TickDuration prometheus.Histogram
	Decisions    *prometheus.CounterVec

	TxPowerDBm     *prometheus.GaugeVec
	RSSIdBm        *prometheus.GaugeVec
	ThroughputMbps *prometheus.GaugeVec
	DistanceM      *prometheus.GaugeVec
}

// NewControlLoopCollector registers control-loop metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewControlLoopCollector(reg prometheus.Registerer) (*ControlLoopCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "control_ticks_total",
		Help: "Total number of completed control-loop ticks.",
	}), "control_ticks_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "control_tick_duration_seconds",
		Help:    "Wall-clock duration of one control-loop tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	duration, err = registerHistogram(reg, duration, "control_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "control_decisions_total",
		Help: "Control decisions taken, labeled by link and decision token.",
	}, []string{"link", "decision"})
	decisions, err = registerCounterVec(reg, decisions, "control_decisions_total")
	if err != nil {
		return nil, err
	}

	txPower, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_tx_power_dbm",
		Help: "Current transmit power per monitored link.",
	}, []string{"link"}), "link_tx_power_dbm")
	if err != nil {
		return nil, err
	}
	rssi, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_rssi_dbm",
		Help: "Estimated received signal strength per monitored link.",
	}, []string{"link"}), "link_rssi_dbm")
	if err != nil {
		return nil, err
	}
	throughput, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_throughput_mbps",
		Help: "Per-interval delivered throughput per monitored link.",
	}, []string{"link"}), "link_throughput_mbps")
	if err != nil {
		return nil, err
	}
	distance, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_distance_m",
		Help: "AP to station distance per monitored link.",
	}, []string{"link"}), "link_distance_m")
	if err != nil {
		return nil, err
	}

	return &ControlLoopCollector{
		gatherer:       gatherer,
		TicksTotal:     ticks,
		TickDuration:   duration,
		Decisions:      decisions,
		TxPowerDBm:     txPower,
		RSSIdBm:        rssi,
		ThroughputMbps: throughput,
		DistanceM:      distance,
	}, nil
}

// ObserveTick records one completed tick and its duration.
func (c *ControlLoopCollector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

// RecordDecision counts one decision for a link.
func (c *ControlLoopCollector) RecordDecision(link, decision string) {
	if c == nil || c.Decisions == nil {
		return
	}
	c.Decisions.WithLabelValues(link, decision).Inc()
}

// SetLinkGauges updates the per-link gauges from one tick sample.
func (c *ControlLoopCollector) SetLinkGauges(link string, txPowerDBm, rssiDBm, throughputMbps, distanceM float64) {
	if c == nil {
		return
	}
	if c.TxPowerDBm != nil {
		c.TxPowerDBm.WithLabelValues(link).Set(txPowerDBm)
	}
	if c.RSSIdBm != nil {
		c.RSSIdBm.WithLabelValues(link).Set(rssiDBm)
	}
	if c.ThroughputMbps != nil {
		c.ThroughputMbps.WithLabelValues(link).Set(throughputMbps)
	}
	if c.DistanceM != nil {
		c.DistanceM.WithLabelValues(link).Set(distanceM)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ControlLoopCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ControlLoopCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
