package telemetry

import (
	"fmt"
	"strings"

	"github.com/cmeth990/kgctl/pkg/models"
)

// Summarize renders a snapshot as the chat-facing status text the
// supervisor's status node returns.
func Summarize(s models.SystemStateSnapshot) string {
	var b strings.Builder
	b.WriteString("System state summary\n")

	b.WriteString("\nAgent health:\n")
	if s.AgentHealth.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", s.AgentHealth.Error)
	} else {
		fmt.Fprintf(&b, "  domains: %d total\n", s.AgentHealth.Domains.Total)
		if len(s.AgentHealth.Domains.Open) > 0 {
			fmt.Fprintf(&b, "  paused domains: %s\n", strings.Join(capList(s.AgentHealth.Domains.Open, 5), ", "))
		}
		fmt.Fprintf(&b, "  sources: %d total\n", s.AgentHealth.Sources.Total)
		if len(s.AgentHealth.Sources.Open) > 0 {
			fmt.Fprintf(&b, "  paused sources: %s\n", strings.Join(capList(s.AgentHealth.Sources.Open, 5), ", "))
		}
	}

	b.WriteString("\nCost tracking:\n")
	if s.CostTrack.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", s.CostTrack.Error)
	} else {
		fmt.Fprintf(&b, "  total: %s\n", formatUSD(s.CostTrack.TotalCostUSD))
		fmt.Fprintf(&b, "  calls: %d (%d successful)\n", s.CostTrack.TotalCalls, s.CostTrack.SuccessfulCalls)
		if s.CostTrack.GlobalDailyLimit != nil && s.CostTrack.GlobalDailyRemain != nil {
			fmt.Fprintf(&b, "  daily budget: %s / %s (%s remaining)\n",
				formatUSD(s.CostTrack.GlobalDailySpent), formatUSD(*s.CostTrack.GlobalDailyLimit), formatUSD(*s.CostTrack.GlobalDailyRemain))
		}
	}

	b.WriteString("\nQueue health:\n")
	if s.QueueHealth.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", s.QueueHealth.Error)
	} else {
		fmt.Fprintf(&b, "  dead letter: %d\n", s.QueueHealth.DeadLetterCount)
		fmt.Fprintf(&b, "  stuck: %d\n", s.QueueHealth.StuckCount)
	}

	b.WriteString("\nError rates:\n")
	if s.ErrorRates.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", s.ErrorRates.Error)
	} else {
		fmt.Fprintf(&b, "  rate: %.1f%%\n", s.ErrorRates.ErrorRate*100)
		fmt.Fprintf(&b, "  recent errors: %d / %d calls\n", s.ErrorRates.Errors, s.ErrorRates.RecentCalls)
	}

	b.WriteString("\nKnowledge graph:\n")
	if s.KGStats.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", s.KGStats.Error)
	} else {
		fmt.Fprintf(&b, "  current version: %d\n", s.KGStats.CurrentVersion)
		fmt.Fprintf(&b, "  recent changes: %d\n", s.KGStats.RecentChanges)
	}

	return b.String()
}

func capList(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func formatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}
