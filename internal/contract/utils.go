package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Severity label constants.
const (
	HighValue     = "High"     // High severity
	ModerateValue = "Moderate" // Moderate severity
	NormalValue   = "Normal"   // No flag
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgRed, color.Bold) // highColor represents standard danger.
	ModerateColor = color.New(color.FgYellow)          // moderateColor represents standard caution, not bold.
	NormalColor   = color.New(color.FgCyan)            // normalColor represents informational signal.
)

// GetPlainLabel returns a plain text label for an anomaly severity.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(severity schema.Severity) string {
	switch severity {
	case schema.SeverityHigh:
		return HighValue
	case schema.SeverityModerate:
		return ModerateValue
	default:
		return NormalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, then applies the color.
func GetColorLabel(severity schema.Severity) string {
	text := GetPlainLabel(severity)

	switch text {
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default:
		return NormalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It writes to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for pipeline storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fika_store.db"
	}
	return filepath.Join(homeDir, ".fika_store.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fika_history.db"
	}
	return filepath.Join(homeDir, ".fika_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
