package pipeline

import (
	"fmt"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// BuildSummary renders a human-readable markdown report of a batch run.
func BuildSummary(res *Result, extrema []gaitcycle.ExtremaSummary) string {
	if res == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Gait cycle batch %s\n\n", res.RunID)
	fmt.Fprintf(
		&b,
		"Trials %d | Failed %d | Cycles %d | Aggregate cells %d\n\n",
		len(res.Trials),
		res.Failed(),
		res.Cycles,
		res.StatCells,
	)

	b.WriteString("## Trials\n\n")
	b.WriteString("| Trial | Status | Detector | Events | Cycles | Dropped | Truncated | Note |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, t := range res.Trials {
		fmt.Fprintf(
			&b,
			"| %s | %s | %s | %d | %d | %d | %d | %s |\n",
			t.ID,
			t.Status,
			detectorLabel(t),
			len(t.Events),
			t.Cycles,
			len(t.Dropped),
			t.Truncated,
			trialNote(t),
		)
	}

	if len(extrema) > 0 {
		b.WriteString("\n## Extrema\n\n")
		b.WriteString("| Group | Channel | Cycles | Peak | Min | ROM |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, e := range extrema {
			fmt.Fprintf(
				&b,
				"| %s | %s | %d | %s | %s | %s |\n",
				e.Group.Label(),
				e.Channel,
				e.Cycles,
				meanSD(e.PeakMean, e.PeakSD),
				meanSD(e.MinMean, e.MinSD),
				meanSD(e.ROMMean, e.ROMSD),
			)
		}
	}
	return b.String()
}

func detectorLabel(t TrialOutcome) string {
	if t.Detector == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Detector, t.DetectorChannel)
}

func trialNote(t TrialOutcome) string {
	if t.Error != "" {
		return strings.ReplaceAll(t.Error, "|", "/")
	}
	if len(t.SkippedChannels) > 0 {
		return "missing " + strings.Join(t.SkippedChannels, ", ")
	}
	return ""
}

func meanSD(mean, sd float64) string {
	return fmt.Sprintf("%.3f ± %.3f", mean, sd)
}
