package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// validate caches struct metadata across calls; it is safe for concurrent use.
var validate = validator.New()

// Config represents the application configuration
type Config struct {
	Storage      StorageConfig      `toml:"storage"`
	Runner       RunnerConfig       `toml:"runner"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Logging      LoggingConfig      `toml:"logging"`
}

// StorageConfig locates the artifact roots shared with the external jobs.
// Relative directories are resolved against BaseDir.
type StorageConfig struct {
	BaseDir        string `toml:"base_dir"`
	AnalysisDir    string `toml:"analysis_dir" validate:"required"`
	DCFDir         string `toml:"dcf_dir" validate:"required"`
	DataDir        string `toml:"data_dir" validate:"required"`
	SummariesDir   string `toml:"summaries_dir" validate:"required"`
	TranscriptsDir string `toml:"transcripts_dir" validate:"required"`
}

// RunnerConfig controls how external compute jobs are launched.
type RunnerConfig struct {
	Program           string            `toml:"program" validate:"required"` // Executable used to run notebooks (default: "papermill")
	Args              []string          `toml:"args"`                        // Extra arguments placed before the notebook path
	Output            string            `toml:"output"`                      // Output notebook path passed to the program (default: "-")
	WorkingDir        string            `toml:"working_dir"`                 // Working directory for job processes (default: storage base dir)
	Timeout           string            `toml:"timeout"`                     // Per-job timeout as duration string (default: "30m", "0" disables)
	LaunchesPerMinute int               `toml:"launches_per_minute" validate:"gte=0"`
	Env               map[string]string `toml:"env"` // Extra environment variables for job processes
	Notebooks         NotebooksConfig   `toml:"notebooks"`
}

// NotebooksConfig maps each job kind to the notebook that implements it.
type NotebooksConfig struct {
	Analysis          string `toml:"analysis" validate:"required"`
	DCF               string `toml:"dcf" validate:"required"`
	Transcripts       string `toml:"transcripts" validate:"required"`
	TranscriptSummary string `toml:"transcript_summary" validate:"required"`
}

// OrchestratorConfig bounds per-request concurrency.
type OrchestratorConfig struct {
	MaxParallelJobs int `toml:"max_parallel_jobs" validate:"gte=1"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
	Dir        string   `toml:"dir"`         // Directory for the log file (default: "./logs")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			BaseDir:        ".",
			AnalysisDir:    "analysis",
			DCFDir:         "dcf",
			DataDir:        "data",
			SummariesDir:   "summaries",
			TranscriptsDir: "transcripts",
		},
		Runner: RunnerConfig{
			Program:           "papermill",
			Output:            "-",
			Timeout:           "30m",
			LaunchesPerMinute: 0,
			Env:               map[string]string{},
			Notebooks: NotebooksConfig{
				Analysis:          "analyze_stock.ipynb",
				DCF:               "dcf.ipynb",
				Transcripts:       "transcripts.ipynb",
				TranscriptSummary: "transcript_summary.ipynb",
			},
		},
		Orchestrator: OrchestratorConfig{
			MaxParallelJobs: 2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"file"},
			TimeFormat: "15:04:05",
			Dir:        "logs",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI overrides are applied separately via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unknown keys are an error
		decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies STOCKANALYZER_* environment variables to config
func applyEnvOverrides(config *Config) {
	// Storage
	if baseDir := os.Getenv("STOCKANALYZER_BASE_DIR"); baseDir != "" {
		config.Storage.BaseDir = baseDir
	}

	// Runner
	if program := os.Getenv("STOCKANALYZER_RUNNER_PROGRAM"); program != "" {
		config.Runner.Program = program
	}
	if workingDir := os.Getenv("STOCKANALYZER_RUNNER_WORKING_DIR"); workingDir != "" {
		config.Runner.WorkingDir = workingDir
	}
	if timeout := os.Getenv("STOCKANALYZER_RUNNER_TIMEOUT"); timeout != "" {
		config.Runner.Timeout = timeout
	}
	if launches := os.Getenv("STOCKANALYZER_RUNNER_LAUNCHES_PER_MINUTE"); launches != "" {
		if n, err := strconv.Atoi(launches); err == nil {
			config.Runner.LaunchesPerMinute = n
		}
	}

	// Orchestrator
	if parallel := os.Getenv("STOCKANALYZER_MAX_PARALLEL_JOBS"); parallel != "" {
		if n, err := strconv.Atoi(parallel); err == nil {
			config.Orchestrator.MaxParallelJobs = n
		}
	}

	// Logging
	if level := os.Getenv("STOCKANALYZER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("STOCKANALYZER_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line overrides (highest priority).
// Empty values leave the loaded configuration untouched.
func ApplyFlagOverrides(config *Config, baseDir, logLevel string) {
	if baseDir != "" {
		config.Storage.BaseDir = baseDir
	}
	if logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}
}

// Validate checks struct constraints and values that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Runner.JobTimeout(); err != nil {
		return fmt.Errorf("invalid configuration: runner.timeout: %w", err)
	}
	return nil
}

// JobTimeout parses the configured per-job timeout. Zero means no timeout.
func (r RunnerConfig) JobTimeout() (time.Duration, error) {
	if r.Timeout == "" || r.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative, got %s", r.Timeout)
	}
	return d, nil
}

// Resolve returns dir joined onto BaseDir unless it is already absolute.
func (s StorageConfig) Resolve(dir string) string {
	if filepath.IsAbs(dir) || s.BaseDir == "" {
		return dir
	}
	return filepath.Join(s.BaseDir, dir)
}
