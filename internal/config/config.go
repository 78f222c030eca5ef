// Package config provides configuration types, defaults and validation for
// tourscout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/flags"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/tracing"
)

// Config holds all configuration options for tourscout.
type Config struct {
	Search  SearchConfig    `mapstructure:"search" yaml:"search"`
	Backend backend.Config  `mapstructure:"backend" yaml:"backend"`
	UI      UIConfig        `mapstructure:"ui" yaml:"ui"`
	Metrics MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Tracing tracing.Config  `mapstructure:"tracing" yaml:"tracing"`
	Log     LogConfig       `mapstructure:"log" yaml:"log"`
	Flags   map[string]bool `mapstructure:"flags" yaml:"flags"`
}

// SearchConfig controls the search controller. Changes to poll_interval
// and max_retries are applied while running.
type SearchConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	CallTimeout  time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// Policy returns the polling policy described by s.
func (s SearchConfig) Policy() search.Policy {
	return search.Policy{PollInterval: s.PollInterval, MaxRetries: s.MaxRetries}
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"` // "dark" (default) or "light"
	ResultLimit   int    `mapstructure:"result_limit" yaml:"result_limit"`     // rows shown, 0 = all
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464". Empty disables the server.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig controls the debug log written with --debug.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults returns a Config with the default values.
func Defaults() Config {
	return Config{
		Search: SearchConfig{
			PollInterval: search.DefaultPollInterval,
			MaxRetries:   search.DefaultMaxRetries,
			CallTimeout:  search.DefaultCallTimeout,
		},
		Backend: backend.DefaultConfig(),
		UI: UIConfig{
			MarkdownStyle: "dark",
			ResultLimit:   20,
		},
		Tracing: tracing.DefaultConfig(),
		Log: LogConfig{
			Path:  "debug.log",
			Level: "debug",
		},
		Flags: map[string]bool{
			flags.FlagResetCancels:        true,
			flags.FlagKeepPreviousResults: true,
		},
	}
}

// SetDefaults registers every default on v so keys missing from the file
// still resolve.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("search.poll_interval", d.Search.PollInterval)
	v.SetDefault("search.max_retries", d.Search.MaxRetries)
	v.SetDefault("search.call_timeout", d.Search.CallTimeout)

	v.SetDefault("backend.min_ready_delay", d.Backend.MinReadyDelay)
	v.SetDefault("backend.max_ready_delay", d.Backend.MaxReadyDelay)
	v.SetDefault("backend.not_ready_rate", d.Backend.NotReadyRate)
	v.SetDefault("backend.fail_rate", d.Backend.FailRate)
	v.SetDefault("backend.cancel_fail_rate", d.Backend.CancelFailRate)
	v.SetDefault("backend.latency", d.Backend.Latency)
	v.SetDefault("backend.job_ttl", d.Backend.JobTTL)
	v.SetDefault("backend.seed", d.Backend.Seed)

	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.result_limit", d.UI.ResultLimit)

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)

	for name, enabled := range d.Flags {
		v.SetDefault("flags."+name, enabled)
	}
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func Validate(c Config) error {
	if err := ValidateSearch(c.Search); err != nil {
		return err
	}
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	if err := ValidateFlags(c.Flags); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateFlags rejects flag names the application does not read, which
// are almost always typos.
func ValidateFlags(m map[string]bool) error {
	known := flags.Known()
	for name := range m {
		if !slices.Contains(known, name) {
			return fmt.Errorf("flags.%s is not a known flag (known: %s)", name, strings.Join(known, ", "))
		}
	}
	return nil
}

// ValidateSearch checks the controller settings.
func ValidateSearch(s SearchConfig) error {
	if s.PollInterval < 0 {
		return fmt.Errorf("search.poll_interval must not be negative, got %s", s.PollInterval)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("search.max_retries must not be negative, got %d", s.MaxRetries)
	}
	if s.CallTimeout < 0 {
		return fmt.Errorf("search.call_timeout must not be negative, got %s", s.CallTimeout)
	}
	return nil
}

// ValidateBackend checks the simulated backend settings.
func ValidateBackend(b backend.Config) error {
	if b.MinReadyDelay < 0 || b.MaxReadyDelay < 0 {
		return fmt.Errorf("backend ready delays must not be negative")
	}
	if b.MinReadyDelay > b.MaxReadyDelay {
		return fmt.Errorf("backend.min_ready_delay (%s) must not exceed backend.max_ready_delay (%s)", b.MinReadyDelay, b.MaxReadyDelay)
	}
	rates := []struct {
		key string
		val float64
	}{
		{"backend.not_ready_rate", b.NotReadyRate},
		{"backend.fail_rate", b.FailRate},
		{"backend.cancel_fail_rate", b.CancelFailRate},
	}
	for _, r := range rates {
		if r.val < 0 || r.val > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %v", r.key, r.val)
		}
	}
	if b.Latency < 0 {
		return fmt.Errorf("backend.latency must not be negative, got %s", b.Latency)
	}
	return nil
}

// ValidateUI checks user interface settings.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", ui.MarkdownStyle)
	}
	if ui.ResultLimit < 0 {
		return fmt.Errorf("ui.result_limit must not be negative, got %d", ui.ResultLimit)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	if !tracing.ValidExporter(t.Exporter) {
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	// Path requirements only matter once tracing is on.
	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultTracesFilePath returns ~/.config/tourscout/traces/traces.jsonl,
// or "" when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tourscout", "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# tourscout configuration

# Search controller
search:
  poll_interval: 1s    # delay between polls after not-ready or a failure
  max_retries: 2       # failed polls retried before the search errors
  call_timeout: 30s    # upper bound on a single backend call

# Simulated backend
backend:
  min_ready_delay: 1s  # results become available between min and max
  max_ready_delay: 4s
  not_ready_rate: 0.2  # chance a poll after the ready time is still computing
  fail_rate: 0.1       # chance a poll fails
  cancel_fail_rate: 0.05
  latency: 150ms       # average per-call latency
  job_ttl: 10m         # jobs are forgotten after this long
  # seed: 42           # fix the random source (0 = time based)

# UI settings
ui:
  # markdown_style: dark  # help rendering style: "dark" (default) or "light"
  result_limit: 20        # rows shown in the results table, 0 = all

# Prometheus metrics endpoint (/metrics, /healthz, /state)
metrics:
  addr: ""                # e.g. ":9464", empty disables the server

# Debug log (enabled with --debug or TOURSCOUT_DEBUG=1)
log:
  path: debug.log
  level: debug            # debug, info, warn or error

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/tourscout/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Feature flags
flags:
  reset-cancels: true          # Reset also cancels the running search on the backend
  keep-previous-results: true  # Show the last results while a new search runs
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
