// Package recorder persists per-tick metric samples to an append-only
// CSV log and accumulates the totals behind the end-of-run summary.
package recorder

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/signalsfoundry/adaptive-wifi-sim/core"
)

// Header is the exact CSV header; consumers key on these column names.
const Header = "Time(s),Flow,Distance(m),Throughput(Mbps),PDR(%),Loss(%),Delay(ms),RSSI(dBm),TxPower(dBm),AI_Decision"

// LinkSummary is the end-of-run aggregate for one monitored link.
// Throughput comes from total received bytes over the link's active
// duration, not from averaging interval values; PDR, loss and delay
// come from total packet counts.
type LinkSummary struct {
	Link              string
	Samples           int
	AvgThroughputMbps float64
	PDRPercent        float64
	LossPercent       float64
	AvgDelayMs        float64

	// Delay quantiles over per-tick mean delays, from a DDSketch.
	DelayP50Ms float64
	DelayP95Ms float64
}

type linkTotals struct {
	rxBytes   uint64
	txPackets uint64
	rxPackets uint64
	delaySum  time.Duration

	firstTxS float64
	lastRxS  float64
	samples  int

	delays *ddsketch.DDSketch
}

// CSVRecorder implements core.MetricSink over any writer. It is a pure
// sink: rows are appended in arrival order and never rewritten.
type CSVRecorder struct {
	w    io.Writer
	tick time.Duration

	totals map[string]*linkTotals
}

// NewCSVRecorder writes the header and returns a recorder. tick is the
// sampling interval, used to bound each link's active duration.
func NewCSVRecorder(w io.Writer, tick time.Duration) (*CSVRecorder, error) {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &CSVRecorder{
		w:      w,
		tick:   tick,
		totals: make(map[string]*linkTotals),
	}, nil
}

// Record appends one row and folds the sample into the link's totals.
// Time is truncated to whole seconds; the remaining fields keep the
// precision downstream tooling expects.
func (r *CSVRecorder) Record(s core.MetricSample) error {
	_, err := fmt.Fprintf(r.w, "%d,%s,%.2f,%.3f,%.2f,%.2f,%.3f,%.2f,%.1f,%s\n",
		int(s.TimeS),
		s.Link,
		s.DistanceM,
		s.ThroughputMbps,
		s.PDRPercent,
		s.LossPercent,
		s.DelayMs,
		s.RSSIdBm,
		s.TxPowerDBm,
		s.Decision,
	)
	if err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	t := r.totals[s.Link]
	if t == nil {
		sketch, err := ddsketch.NewDefaultDDSketch(0.01)
		if err != nil {
			return fmt.Errorf("create delay sketch: %w", err)
		}
		t = &linkTotals{firstTxS: -1, lastRxS: -1, delays: sketch}
		r.totals[s.Link] = t
	}

	t.samples++
	t.rxBytes += s.Deltas.RxBytes
	t.txPackets += s.Deltas.TxPackets
	t.rxPackets += s.Deltas.RxPackets
	t.delaySum += s.Deltas.DelaySum
	if s.Deltas.TxPackets > 0 && t.firstTxS < 0 {
		t.firstTxS = s.TimeS
	}
	if s.Deltas.RxPackets > 0 {
		t.lastRxS = s.TimeS
		if err := t.delays.Add(s.DelayMs); err != nil {
			return fmt.Errorf("record delay sample: %w", err)
		}
	}
	return nil
}

// Summaries returns the per-link aggregates, sorted by link label.
// Links that never carried traffic report zeros throughout.
func (r *CSVRecorder) Summaries() []LinkSummary {
	out := make([]LinkSummary, 0, len(r.totals))
	for link, t := range r.totals {
		s := LinkSummary{Link: link, Samples: t.samples}

		if t.firstTxS >= 0 && t.lastRxS >= 0 {
			// The first sample's interval starts one tick before its
			// timestamp, so the active window is inclusive of it.
			duration := t.lastRxS - t.firstTxS + r.tick.Seconds()
			if duration > 0 {
				s.AvgThroughputMbps = float64(t.rxBytes) * 8 / duration / 1e6
			}
		}
		if t.txPackets > 0 {
			s.PDRPercent = float64(t.rxPackets) / float64(t.txPackets) * 100
			if s.PDRPercent > 100 {
				s.PDRPercent = 100
			}
		}
		s.LossPercent = 100 - s.PDRPercent
		if t.rxPackets > 0 {
			s.AvgDelayMs = t.delaySum.Seconds() / float64(t.rxPackets) * 1000
		}
		if q, err := t.delays.GetValuesAtQuantiles([]float64{0.5, 0.95}); err == nil && len(q) == 2 {
			s.DelayP50Ms, s.DelayP95Ms = q[0], q[1]
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Link < out[j].Link })
	return out
}
