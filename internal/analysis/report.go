package analysis

import (
	"fmt"
	"sort"
	"strings"
)

const rule = "----------------------------------------------------------------------"

// RenderText renders the report and recommendations as a plain-text
// document suitable for a terminal or a saved run artifact.
func RenderText(rep *Report, recs []Recommendation) string {
	var sb strings.Builder

	sb.WriteString("ADAPTIVE WIFI - RUN ANALYSIS\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Total samples: %d\n\n", rep.TotalSamples)

	for _, fs := range rep.Flows {
		kind := "stationary"
		if fs.Mobile() {
			kind = "mobile"
		}
		fmt.Fprintf(&sb, "[%s - %s]\n", fs.Flow, kind)
		sb.WriteString(rule + "\n")
		if fs.Mobile() {
			fmt.Fprintf(&sb, "Distance range:      %.2f - %.2f m\n", fs.MinDistanceM, fs.MaxDistanceM)
		} else {
			fmt.Fprintf(&sb, "Average distance:    %.2f m\n", fs.AvgDistanceM)
		}
		fmt.Fprintf(&sb, "Average throughput:  %.3f Mbps\n", fs.AvgThroughputMbps)
		fmt.Fprintf(&sb, "Throughput range:    %.3f - %.3f Mbps\n", fs.MinThroughputMbps, fs.MaxThroughputMbps)
		fmt.Fprintf(&sb, "Average PDR:         %.2f%%\n", fs.AvgPDRPercent)
		fmt.Fprintf(&sb, "Average loss:        %.2f%%\n", fs.AvgLossPercent)
		fmt.Fprintf(&sb, "Average delay:       %.3f ms\n", fs.AvgDelayMs)
		fmt.Fprintf(&sb, "Average RSSI:        %.2f dBm\n", fs.AvgRSSIdBm)
		fmt.Fprintf(&sb, "Final TX power:      %.1f dBm\n", fs.FinalTxPowerDBm)

		if len(fs.DecisionCounts) > 0 {
			sb.WriteString("Decisions:\n")
			for _, decision := range sortedKeys(fs.DecisionCounts) {
				fmt.Fprintf(&sb, "  %s: %d\n", decision, fs.DecisionCounts[decision])
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("RECOMMENDATIONS\n")
	sb.WriteString(rule + "\n")
	if len(recs) == 0 {
		sb.WriteString("No critical issues detected. System performing optimally.\n")
		return sb.String()
	}
	for i, rec := range recs {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, rec.Priority, rec.Issue)
		fmt.Fprintf(&sb, "   Metric: %s\n", rec.Metric)
		fmt.Fprintf(&sb, "   Recommended action: %s\n", rec.Action)
	}
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
