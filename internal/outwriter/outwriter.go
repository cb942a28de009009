// Package outwriter has report output and writer logic.
package outwriter

import (
	"fmt"
	"os"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints a completed report using the configured output format.
func (ow *OutWriter) WriteReport(payload *schema.ReportPayload, cfg *contract.Config, duration time.Duration) error {
	return WriteReportResults(payload, cfg, duration)
}

// LogReportHeader prints a concise, 2-line header for a report run.
func LogReportHeader(cfg *contract.Config) {
	repoEmoji, rangeEmoji := "", ""
	if cfg.UseEmojis {
		repoEmoji, rangeEmoji = "🔎 ", "📅 "
	}

	// Line 1: The report summary (repo and grain)
	fmt.Printf("%sRepo: %s (Grain: %s)\n", repoEmoji, cfg.Repo, cfg.Grain)

	// Line 2: The actual period being reported on
	fmt.Printf("%sPeriod: %s → %s\n", rangeEmoji,
		cfg.Period.Start.Format(contract.DateTimeFormat),
		cfg.Period.End.Format(contract.DateTimeFormat))
}

// getTerminalWidth resolves the terminal width for table layout, honoring
// the explicit override from flag/env.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}

	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxTableAuthorWidth calculates the maximum width for author logins in
// table output based on terminal width.
func getMaxTableAuthorWidth(cfg *contract.Config) int {
	// Reserve space for the metric columns with borders and padding
	baseWidth := 78 // Commits + Churn + Files + PRs + Merged + Review + Cycle + CI Fail + Flag

	available := getTerminalWidth(cfg) - baseWidth
	if available < 10 {
		// Minimum reasonable login width
		return 10
	}
	if available > 30 {
		// Maximum login width to keep rows compact
		return 30
	}
	return available
}

// truncateLabel shortens a label to at most width runes, marking the cut
// with a leading ellipsis the way long paths are truncated elsewhere.
func truncateLabel(label string, width int) string {
	runes := []rune(label)
	if len(runes) <= width {
		return label
	}
	if width <= 1 {
		return "…"
	}
	return "…" + string(runes[len(runes)-width+1:])
}
