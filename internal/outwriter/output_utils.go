package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
// fmtNullable renders nil metric values as "n/a" so insufficient data never
// prints as zero.
func createFormatters(precision int) (fmtFloat func(float64) string, fmtNullable func(*float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	fmtNullable = func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmtFloat(*v)
	}
	return fmtFloat, fmtNullable, intFmt
}

// worstSeverity returns the most severe flag raised for a scope, keyed by
// author login ("" for repo-wide). No flag yields the empty severity.
func worstSeverity(flags []schema.AnomalyFlag, author string) schema.Severity {
	var worst schema.Severity
	for _, f := range flags {
		if f.Author != author {
			continue
		}
		if f.Severity == schema.SeverityHigh {
			return schema.SeverityHigh
		}
		worst = f.Severity
	}
	return worst
}

// flagCountsByAuthor tallies flags per author login for flattened exports.
func flagCountsByAuthor(flags []schema.AnomalyFlag) map[string]int {
	counts := make(map[string]int)
	for _, f := range flags {
		if f.Author != "" {
			counts[f.Author]++
		}
	}
	return counts
}

// severityLabel renders a severity as a table label, colored when enabled.
func severityLabel(severity schema.Severity, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(severity)
	}
	return contract.GetPlainLabel(severity)
}
