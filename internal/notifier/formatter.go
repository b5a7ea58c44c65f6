package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"ChartDataset/internal/pipeline"
	"ChartDataset/internal/sampler"
)

// maxListedFailures caps the failed symbols spelled out in a message.
const maxListedFailures = 20

// FormatRunSummary formats a finished run into a Telegram message.
func FormatRunSummary(s *pipeline.RunSummary) string {
	var b strings.Builder

	icon := "✅"
	switch s.Status {
	case pipeline.StatusFailed:
		icon = "❌"
	case pipeline.StatusCancelled:
		icon = "⏹"
	}
	b.WriteString(fmt.Sprintf("%s <b>ChartDataset run</b> | %s\n\n", icon, s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	b.WriteString(fmt.Sprintf("Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Second)))
	b.WriteString(fmt.Sprintf("Symbols: %d\n", s.Symbols))
	b.WriteString(fmt.Sprintf("Chunks: %d written, %d already built, %d total\n", s.WrittenChunks, s.SkippedChunks, s.Chunks))
	b.WriteString(fmt.Sprintf("Samples: %d\n", s.Samples))

	if len(s.Skips) > 0 {
		b.WriteString("\n<b>Skipped windows:</b>\n")
		reasons := make([]sampler.SkipReason, 0, len(s.Skips))
		for r := range s.Skips {
			reasons = append(reasons, r)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, r := range reasons {
			b.WriteString(fmt.Sprintf("  %s: %d\n", r, s.Skips[r]))
		}
	}

	if n := len(s.FailedSymbols); n > 0 {
		listed := s.FailedSymbols
		if n > maxListedFailures {
			listed = listed[:maxListedFailures]
		}
		b.WriteString(fmt.Sprintf("\n<b>Failed symbols (%d):</b> %s", n, html.EscapeString(strings.Join(listed, ", "))))
		if n > maxListedFailures {
			b.WriteString(fmt.Sprintf(" and %d more", n-maxListedFailures))
		}
		b.WriteString("\n")
	}

	if s.Err != nil {
		b.WriteString(fmt.Sprintf("\nError: %s\n", html.EscapeString(s.Err.Error())))
	}
	return b.String()
}
