package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Default values for configuration.
const (
	DefaultLookbackPeriods = 8
	DefaultMinSamples      = 4
	DefaultZThreshold      = 2.0
	DefaultPrecision       = 1
	DefaultSeed            = 42
	MaxLookbackPeriods     = 64
)

// Retry policy for external collaborator calls (ingestion fetch, narrator).
const (
	RetryAttempts     = 4
	RetryInitialDelay = 500 * time.Millisecond
	RetryMaxDelay     = 8 * time.Second
)

// DefaultWorkers is the default number of concurrent pipeline workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a pipeline invocation.
// This struct remains the "final, validated" config.
type Config struct {
	Repo      string
	Grain     schema.Grain
	Period    schema.Period
	WeekStart time.Weekday
	Location  *time.Location

	LookbackPeriods int
	MinSamples      int
	ZThreshold      float64

	Workers int
	Force   bool
	Seed    int64

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoStr string

	Grain      string  `mapstructure:"grain"`
	Period     string  `mapstructure:"period"`
	WeekStart  string  `mapstructure:"week-start"`
	Timezone   string  `mapstructure:"timezone"`
	Lookback   int     `mapstructure:"lookback"`
	MinSamples int     `mapstructure:"min-samples"`
	ZThreshold float64 `mapstructure:"z-threshold"`

	Workers int   `mapstructure:"workers"`
	Force   bool  `mapstructure:"force"`
	Seed    int64 `mapstructure:"seed"`

	StoreBackend     string `mapstructure:"store-backend"`
	StoreDBConnect   string `mapstructure:"store-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Emoji      string `mapstructure:"emoji"`
	Color      string `mapstructure:"color"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// CloneWithPeriod returns a copy of the config scoped to another period.
func (c *Config) CloneWithPeriod(p schema.Period) *Config {
	clone := c.Clone()
	clone.Period = p
	clone.Grain = p.Grain
	return clone
}

// ProcessAndValidate validates raw input and populates the final config.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processGrainAndPeriod(cfg, input); err != nil {
		return err
	}
	if err := processDetectionParams(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates all non-period fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Repo = strings.TrimSpace(input.RepoStr)
	cfg.OutputFile = input.OutputFile
	cfg.Force = input.Force
	cfg.Seed = input.Seed
	cfg.Width = input.Width

	if cfg.Repo == "" {
		return fmt.Errorf("repository is required, e.g. 'acme/app'")
	}

	// --- 1. Workers ---
	cfg.Workers = input.Workers
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	// --- 2. Output mode ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output mode '%s'. must be text, json, csv, parquet", input.Output)
	}

	// --- 3. Precision ---
	cfg.Precision = input.Precision
	if cfg.Precision < 0 || cfg.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6, got %d", input.Precision)
	}

	// --- 4. Emoji and color toggles ---
	if input.Emoji != "" {
		useEmojis, err := ParseBoolString(input.Emoji)
		if err != nil {
			return fmt.Errorf("invalid emoji value '%s': %w", input.Emoji, err)
		}
		cfg.UseEmojis = useEmojis
	}
	if input.Color != "" {
		useColors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid color value '%s': %w", input.Color, err)
		}
		cfg.UseColors = useColors
	}

	return nil
}

// processGrainAndPeriod resolves the grain, timezone, week anchor and the
// requested reporting period.
func processGrainAndPeriod(cfg *Config, input *ConfigRawInput) error {
	// --- 1. Grain ---
	cfg.Grain = schema.Grain(strings.ToLower(input.Grain))
	if cfg.Grain == "" {
		cfg.Grain = schema.WeeklyGrain
	}
	if _, ok := schema.ValidGrains[cfg.Grain]; !ok {
		return fmt.Errorf("invalid grain '%s'. must be daily, weekly, monthly", input.Grain)
	}

	// --- 2. Source timezone ---
	loc := time.UTC
	if input.Timezone != "" {
		parsed, err := time.LoadLocation(input.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", input.Timezone, err)
		}
		loc = parsed
	}
	cfg.Location = loc

	// --- 3. Week anchor ---
	weekStart, err := ParseWeekday(input.WeekStart)
	if err != nil {
		return err
	}
	cfg.WeekStart = weekStart

	// --- 4. Period reference ---
	ref, err := ParsePeriodReference(input.Period, time.Now().In(loc))
	if err != nil {
		return err
	}
	period, err := schema.PeriodFor(ref.At, cfg.Grain, cfg.WeekStart)
	if err != nil {
		return err
	}
	if ref.Previous {
		period = period.Prev()
	}
	cfg.Period = period

	return nil
}

// processDetectionParams validates the anomaly detection knobs.
func processDetectionParams(cfg *Config, input *ConfigRawInput) error {
	cfg.LookbackPeriods = input.Lookback
	if cfg.LookbackPeriods == 0 {
		cfg.LookbackPeriods = DefaultLookbackPeriods
	}
	if cfg.LookbackPeriods < 0 || cfg.LookbackPeriods > MaxLookbackPeriods {
		return fmt.Errorf("lookback must be between 0 and %d periods, got %d", MaxLookbackPeriods, input.Lookback)
	}

	cfg.MinSamples = input.MinSamples
	if cfg.MinSamples == 0 {
		cfg.MinSamples = DefaultMinSamples
	}
	if cfg.MinSamples < 2 {
		return fmt.Errorf("min-samples must be at least 2, got %d", input.MinSamples)
	}

	cfg.ZThreshold = input.ZThreshold
	if cfg.ZThreshold == 0 {
		cfg.ZThreshold = DefaultZThreshold
	}
	if cfg.ZThreshold < 0 {
		return fmt.Errorf("z-threshold must be non-negative, got %v", input.ZThreshold)
	}

	if cfg.MinSamples > cfg.LookbackPeriods {
		return fmt.Errorf("min-samples (%d) cannot exceed lookback (%d)", cfg.MinSamples, cfg.LookbackPeriods)
	}

	return nil
}

// validateBackendConfigs validates pipeline store and run-history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Pipeline store validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Run history validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend != "" {
		if _, ok := schema.ValidStoreBackends[cfg.HistoryBackend]; !ok {
			return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
		}
		cfg.HistoryDBConnect = input.HistoryDBConnect
		if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
			return err
		}

		// Pipeline and history data must live in different databases.
		if cfg.StoreBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
			storePath := cfg.StoreDBConnect
			if storePath == "" {
				storePath = GetStoreDBFilePath()
			}
			historyPath := cfg.HistoryDBConnect
			if historyPath == "" {
				historyPath = GetHistoryDBFilePath()
			}
			if storePath == historyPath {
				return fmt.Errorf("pipeline and history storage must use different SQLite database files. Both resolve to %q", storePath)
			}
		}
	}

	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection
// strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}
