package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/adaptive-wifi-sim/internal/recorder"
)

const sampleCSV = recorder.Header + "\n" +
	"2,AP1-STA1,5.00,4.915,98.36,1.64,2.000,-44.42,16.0,maintain\n" +
	"3,AP1-STA1,5.00,4.915,98.36,1.64,2.000,-44.42,16.0,maintain\n" +
	"2,AP2-STA2,5.00,4.915,98.36,1.64,2.000,-44.42,16.0,maintain\n" +
	"3,AP2-STA2,15.81,2.458,49.18,50.82,3.081,-66.41,16.0,increase_power\n" +
	"4,AP2-STA2,15.81,2.458,49.18,50.82,3.081,-64.41,18.0,increase_power\n"

func TestParseMetrics(t *testing.T) {
	rows, err := ParseMetrics(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	r := rows[3]
	assert.Equal(t, 3, r.TimeS)
	assert.Equal(t, "AP2-STA2", r.Flow)
	assert.InDelta(t, 15.81, r.DistanceM, 1e-9)
	assert.InDelta(t, 2.458, r.ThroughputMbps, 1e-9)
	assert.InDelta(t, 49.18, r.PDRPercent, 1e-9)
	assert.InDelta(t, 50.82, r.LossPercent, 1e-9)
	assert.InDelta(t, 3.081, r.DelayMs, 1e-9)
	assert.InDelta(t, -66.41, r.RSSIdBm, 1e-9)
	assert.InDelta(t, 16.0, r.TxPowerDBm, 1e-9)
	assert.Equal(t, "increase_power", r.Decision)
}

func TestParseMetrics_RejectsWrongHeader(t *testing.T) {
	_, err := ParseMetrics(strings.NewReader("a,b,c\n1,2,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestParseMetrics_RejectsMalformedField(t *testing.T) {
	csv := recorder.Header + "\n" +
		"2,AP1-STA1,notanumber,4.915,98.36,1.64,2.000,-44.42,16.0,maintain\n"
	_, err := ParseMetrics(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseMetrics_EmptyBody(t *testing.T) {
	rows, err := ParseMetrics(strings.NewReader(recorder.Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAnalyze_PerFlowStats(t *testing.T) {
	rows, err := ParseMetrics(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rep := Analyze(rows)
	assert.Equal(t, 5, rep.TotalSamples)
	require.Len(t, rep.Flows, 2)

	static := rep.Flows[0]
	assert.Equal(t, "AP1-STA1", static.Flow)
	assert.Equal(t, 2, static.Samples)
	assert.False(t, static.Mobile())
	assert.InDelta(t, 4.915, static.AvgThroughputMbps, 1e-9)
	assert.Zero(t, static.StdDevThroughputMbps)
	assert.Equal(t, map[string]int{"maintain": 2}, static.DecisionCounts)

	mobile := rep.Flows[1]
	assert.Equal(t, "AP2-STA2", mobile.Flow)
	assert.True(t, mobile.Mobile())
	assert.InDelta(t, 5.00, mobile.MinDistanceM, 1e-9)
	assert.InDelta(t, 15.81, mobile.MaxDistanceM, 1e-9)
	assert.InDelta(t, 18.0, mobile.FinalTxPowerDBm, 1e-9)
	assert.Equal(t, 2, mobile.DecisionCounts["increase_power"])
}

func TestRecommendations_MobileFlowRules(t *testing.T) {
	// A mobile flow stuck far out with collapsed throughput, weak
	// signal and heavy loss trips all three mobile rules.
	var b strings.Builder
	b.WriteString(recorder.Header + "\n")
	b.WriteString("2,AP2-STA2,5.00,4.915,98.36,1.64,2.000,-44.42,16.0,maintain\n")
	for s := 3; s <= 8; s++ {
		fmt.Fprintf(&b, "%d,AP2-STA2,20.00,1.500,30.00,70.00,3.500,-78.00,16.0,increase_power\n", s)
	}

	rows, err := ParseMetrics(strings.NewReader(b.String()))
	require.NoError(t, err)
	recs := Analyze(rows).Recommendations()

	priorities := make(map[string]int)
	for _, r := range recs {
		priorities[r.Priority]++
	}
	assert.Equal(t, 1, priorities["HIGH"], "expected the far-throughput rule to fire: %+v", recs)
	assert.Equal(t, 2, priorities["MEDIUM"], "expected the RSSI and loss rules to fire: %+v", recs)
}

func TestRecommendations_StationaryVariability(t *testing.T) {
	var b strings.Builder
	b.WriteString(recorder.Header + "\n")
	// Alternating 1 and 5 Mbps on a fixed 5 m link: stddev 2.
	for s := 2; s <= 9; s++ {
		tput := 1.0
		if s%2 == 0 {
			tput = 5.0
		}
		fmt.Fprintf(&b, "%d,AP1-STA1,5.00,%.3f,98.00,2.00,2.000,-44.42,16.0,maintain\n", s, tput)
	}

	rows, err := ParseMetrics(strings.NewReader(b.String()))
	require.NoError(t, err)
	recs := Analyze(rows).Recommendations()

	require.Len(t, recs, 1)
	assert.Equal(t, "LOW", recs[0].Priority)
	assert.Contains(t, recs[0].Issue, "stationary")
}

func TestRecommendations_QuietRun(t *testing.T) {
	var b strings.Builder
	b.WriteString(recorder.Header + "\n")
	// Flat throughput on a fixed 5 m link with negligible loss.
	for s := 2; s <= 9; s++ {
		fmt.Fprintf(&b, "%d,AP1-STA1,5.00,4.900,98.00,2.00,2.000,-44.42,16.0,maintain\n", s)
	}

	rows, err := ParseMetrics(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Empty(t, Analyze(rows).Recommendations())
}

func TestRenderText(t *testing.T) {
	rows, err := ParseMetrics(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	rep := Analyze(rows)

	out := RenderText(rep, rep.Recommendations())
	assert.Contains(t, out, "RUN ANALYSIS")
	assert.Contains(t, out, "[AP1-STA1 - stationary]")
	assert.Contains(t, out, "[AP2-STA2 - mobile]")
	assert.Contains(t, out, "Distance range:")
	assert.Contains(t, out, "increase_power: 2")
}

func TestRenderText_NoIssues(t *testing.T) {
	rep := Analyze(nil)
	out := RenderText(rep, nil)
	assert.Contains(t, out, "No critical issues detected")
}
