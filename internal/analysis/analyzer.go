// Package analysis post-processes a metrics CSV produced by a run:
// per-flow statistics, movement-phase breakdowns, decision tallies and
// rule-based tuning recommendations.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/signalsfoundry/adaptive-wifi-sim/internal/recorder"
)

// Row is one parsed metrics record.
type Row struct {
	TimeS          int
	Flow           string
	DistanceM      float64
	ThroughputMbps float64
	PDRPercent     float64
	LossPercent    float64
	DelayMs        float64
	RSSIdBm        float64
	TxPowerDBm     float64
	Decision       string
}

// ParseMetrics reads a metrics CSV, validating the header against the
// recorder's column set.
func ParseMetrics(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 10

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if got := joinComma(header); got != recorder.Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	var row Row
	var err error
	if row.TimeS, err = strconv.Atoi(rec[0]); err != nil {
		return row, fmt.Errorf("time: %w", err)
	}
	row.Flow = rec[1]
	fields := []struct {
		dst  *float64
		name string
		idx  int
	}{
		{&row.DistanceM, "distance", 2},
		{&row.ThroughputMbps, "throughput", 3},
		{&row.PDRPercent, "pdr", 4},
		{&row.LossPercent, "loss", 5},
		{&row.DelayMs, "delay", 6},
		{&row.RSSIdBm, "rssi", 7},
		{&row.TxPowerDBm, "tx_power", 8},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(rec[f.idx], 64); err != nil {
			return row, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	row.Decision = rec[9]
	return row, nil
}

func joinComma(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

// FlowStats aggregates one flow's samples.
type FlowStats struct {
	Flow    string
	Samples int

	AvgDistanceM float64
	MinDistanceM float64
	MaxDistanceM float64

	AvgThroughputMbps    float64
	MinThroughputMbps    float64
	MaxThroughputMbps    float64
	StdDevThroughputMbps float64

	AvgPDRPercent  float64
	AvgLossPercent float64
	AvgDelayMs     float64
	AvgRSSIdBm     float64
	FinalTxPowerDBm float64

	DecisionCounts map[string]int
}

// Mobile reports whether the flow's station actually moved: a distance
// spread above one metre over the run.
func (s FlowStats) Mobile() bool {
	return s.MaxDistanceM-s.MinDistanceM > 1
}

// Report is the full analysis result.
type Report struct {
	TotalSamples int
	Flows        []FlowStats

	rows []Row
}

// Analyze aggregates parsed rows into per-flow statistics.
func Analyze(rows []Row) *Report {
	byFlow := make(map[string][]Row)
	for _, row := range rows {
		byFlow[row.Flow] = append(byFlow[row.Flow], row)
	}

	flows := make([]string, 0, len(byFlow))
	for flow := range byFlow {
		flows = append(flows, flow)
	}
	sort.Strings(flows)

	rep := &Report{TotalSamples: len(rows), rows: rows}
	for _, flow := range flows {
		rep.Flows = append(rep.Flows, flowStats(flow, byFlow[flow]))
	}
	return rep
}

func flowStats(flow string, rows []Row) FlowStats {
	s := FlowStats{
		Flow:           flow,
		Samples:        len(rows),
		MinDistanceM:   math.Inf(1),
		MaxDistanceM:   math.Inf(-1),
		MinThroughputMbps: math.Inf(1),
		MaxThroughputMbps: math.Inf(-1),
		DecisionCounts: make(map[string]int),
	}
	if len(rows) == 0 {
		s.MinDistanceM, s.MaxDistanceM = 0, 0
		s.MinThroughputMbps, s.MaxThroughputMbps = 0, 0
		return s
	}

	var sumDist, sumTput, sumPDR, sumLoss, sumDelay, sumRSSI float64
	for _, r := range rows {
		sumDist += r.DistanceM
		sumTput += r.ThroughputMbps
		sumPDR += r.PDRPercent
		sumLoss += r.LossPercent
		sumDelay += r.DelayMs
		sumRSSI += r.RSSIdBm
		s.MinDistanceM = math.Min(s.MinDistanceM, r.DistanceM)
		s.MaxDistanceM = math.Max(s.MaxDistanceM, r.DistanceM)
		s.MinThroughputMbps = math.Min(s.MinThroughputMbps, r.ThroughputMbps)
		s.MaxThroughputMbps = math.Max(s.MaxThroughputMbps, r.ThroughputMbps)
		s.DecisionCounts[r.Decision]++
	}
	n := float64(len(rows))
	s.AvgDistanceM = sumDist / n
	s.AvgThroughputMbps = sumTput / n
	s.AvgPDRPercent = sumPDR / n
	s.AvgLossPercent = sumLoss / n
	s.AvgDelayMs = sumDelay / n
	s.AvgRSSIdBm = sumRSSI / n
	s.FinalTxPowerDBm = rows[len(rows)-1].TxPowerDBm

	var sq float64
	for _, r := range rows {
		d := r.ThroughputMbps - s.AvgThroughputMbps
		sq += d * d
	}
	s.StdDevThroughputMbps = math.Sqrt(sq / n)
	return s
}

// Recommendation is one rule-based tuning suggestion.
type Recommendation struct {
	Priority string // HIGH | MEDIUM | LOW
	Issue    string
	Metric   string
	Action   string
}

// Recommendations evaluates the tuning rules over the analyzed run.
func (rep *Report) Recommendations() []Recommendation {
	var recs []Recommendation

	for _, fs := range rep.Flows {
		if fs.Mobile() {
			recs = append(recs, rep.mobileFlowRecs(fs)...)
			continue
		}
		// Stationary flows should deliver flat throughput; spread
		// points at interference rather than geometry.
		if fs.StdDevThroughputMbps > 0.5 {
			recs = append(recs, Recommendation{
				Priority: "LOW",
				Issue:    fmt.Sprintf("Throughput variability on stationary flow %s", fs.Flow),
				Metric:   fmt.Sprintf("Std dev: %.3f Mbps", fs.StdDevThroughputMbps),
				Action:   "Check for interference or adjust channel selection",
			})
		}
	}
	return recs
}

func (rep *Report) mobileFlowRecs(fs FlowStats) []Recommendation {
	var recs []Recommendation

	var farTput, farRSSI float64
	farCount := 0
	lossyIntervals := 0
	for _, r := range rep.rows {
		if r.Flow != fs.Flow {
			continue
		}
		if r.DistanceM > 15 {
			farTput += r.ThroughputMbps
			farRSSI += r.RSSIdBm
			farCount++
		}
		if r.LossPercent > 10 {
			lossyIntervals++
		}
	}

	if farCount > 0 {
		avgTput := farTput / float64(farCount)
		avgRSSI := farRSSI / float64(farCount)
		if avgTput < 3.0 {
			recs = append(recs, Recommendation{
				Priority: "HIGH",
				Issue:    fmt.Sprintf("Severe throughput degradation at far distances on %s", fs.Flow),
				Metric:   fmt.Sprintf("Average throughput: %.3f Mbps", avgTput),
				Action:   "Increase TX power by 3-4 dBm or implement beamforming",
			})
		}
		if avgRSSI < -75 {
			recs = append(recs, Recommendation{
				Priority: "MEDIUM",
				Issue:    fmt.Sprintf("Weak signal strength at far distances on %s", fs.Flow),
				Metric:   fmt.Sprintf("Average RSSI: %.2f dBm", avgRSSI),
				Action:   "Deploy additional AP or use directional antennas",
			})
		}
	}
	if lossyIntervals > 0 {
		recs = append(recs, Recommendation{
			Priority: "MEDIUM",
			Issue:    fmt.Sprintf("High packet loss detected on %s", fs.Flow),
			Metric:   fmt.Sprintf("%d intervals with >10%% loss", lossyIntervals),
			Action:   "Implement rate adaptation or increase retransmission limit",
		})
	}
	return recs
}
