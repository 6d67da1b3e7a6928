package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Worker      WorkerConfig   `toml:"worker"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Training    TrainingConfig `toml:"training"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type WorkerConfig struct {
	PollInterval string `toml:"poll_interval"` // e.g. "2s" - how often the worker drains the queue
}

// PollIntervalDuration parses the configured poll interval, falling back
// to two seconds on malformed input.
func (w WorkerConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(w.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"` // Root of incoming/processed/approved/state/master
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// TrainingConfig controls the worker-side scheduled dataset training run
type TrainingConfig struct {
	Enabled   bool   `toml:"enabled"`
	Schedule  string `toml:"schedule"`   // Cron schedule format
	ModelName string `toml:"model_name"` // Registered model name (default "baseline")
}

// NewDefaultConfig returns the configuration defaults applied before any
// config file, environment variable or flag override.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Worker: WorkerConfig{
			PollInterval: "2s",
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Training: TrainingConfig{
			Enabled:   false,
			Schedule:  "0 2 * * *",
			ModelName: "baseline",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; CLI flags are applied afterwards via ApplyFlagOverrides.
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
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DIARIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("DIARIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("DIARIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if pollInterval := os.Getenv("DIARIO_WORKER_POLL_INTERVAL"); pollInterval != "" {
		config.Worker.PollInterval = pollInterval
	}

	if dataDir := os.Getenv("DIARIO_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}

	if level := os.Getenv("DIARIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("DIARIO_LOG_OUTPUT"); output != "" {
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

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Paths derives the on-disk layout from the configured data directory:
//
//	data/incoming/<job_id>/<filename>
//	data/processed/<job_id>/{output.csv, preview.json}
//	data/approved/<YYYY-MM-DD>/<job_id>/
//	data/state/{jobs.json, queue.jsonl, model_registry.json}
//	data/master/<sigla>.json
type Paths struct {
	DataDir      string
	IncomingDir  string
	ProcessedDir string
	ApprovedDir  string
	StateDir     string
	MasterDir    string
	JobsFile     string
	QueueFile    string
	RegistryFile string
}

// NewPaths builds the path set rooted at dataDir.
func NewPaths(dataDir string) Paths {
	stateDir := filepath.Join(dataDir, "state")
	return Paths{
		DataDir:      dataDir,
		IncomingDir:  filepath.Join(dataDir, "incoming"),
		ProcessedDir: filepath.Join(dataDir, "processed"),
		ApprovedDir:  filepath.Join(dataDir, "approved"),
		StateDir:     stateDir,
		MasterDir:    filepath.Join(dataDir, "master"),
		JobsFile:     filepath.Join(stateDir, "jobs.json"),
		QueueFile:    filepath.Join(stateDir, "queue.jsonl"),
		RegistryFile: filepath.Join(stateDir, "model_registry.json"),
	}
}

// EnsureDirs creates every directory of the layout that does not exist yet.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.IncomingDir, p.ProcessedDir, p.ApprovedDir, p.StateDir, p.MasterDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// IncomingJobDir returns the upload directory for a job.
func (p Paths) IncomingJobDir(jobID string) string {
	return filepath.Join(p.IncomingDir, jobID)
}

// ProcessedJobDir returns the artifact directory for a job.
func (p Paths) ProcessedJobDir(jobID string) string {
	return filepath.Join(p.ProcessedDir, jobID)
}

// ApprovedJobDir returns the date-partitioned approved directory for a job.
func (p Paths) ApprovedJobDir(approvedDate, jobID string) string {
	return filepath.Join(p.ApprovedDir, approvedDate, jobID)
}
