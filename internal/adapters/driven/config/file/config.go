package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 3
	DefaultSearchLimit  = 10
)

// DefaultBroadGroups are group names treated as broad access when scoring
// exposure.
var DefaultBroadGroups = []string{"Everyone", "All Staff", "Domain Users", "Authenticated Users"}

// Config is the application configuration, loaded once at startup.
type Config struct {
	// DataDir is where the SQLite database lives. Empty means ~/.quarry.
	DataDir string `toml:"data_dir"`

	// TenantID scopes everything this process touches.
	TenantID string `toml:"tenant_id"`

	Chunking ChunkingConfig `toml:"chunking"`
	Worker   WorkerConfig   `toml:"worker"`
	Exposure ExposureConfig `toml:"exposure"`
	OpenAI   OpenAIConfig   `toml:"openai"`
}

// ChunkingConfig controls uniform chunking parameters.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// WorkerConfig controls the job loop.
type WorkerConfig struct {
	// PollInterval is how long an idle worker sleeps between claims.
	PollInterval time.Duration `toml:"poll_interval"`

	// MaxAttempts is how many claims a job gets before it stops being
	// eligible.
	MaxAttempts int `toml:"max_attempts"`
}

// ExposureConfig controls exposure scoring.
type ExposureConfig struct {
	// BroadGroups are principal display names counted as broad access.
	BroadGroups []string `toml:"broad_groups"`
}

// OpenAIConfig configures the remote model. An empty APIKey disables the
// remote path entirely.
type OpenAIConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Model   string        `toml:"model"`
	Timeout time.Duration `toml:"timeout"`
}

// Load reads the configuration from configDir/config.toml, applying
// defaults for anything unset. A missing file yields the full defaults.
// If configDir is empty, defaults to ~/.quarry.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configDir = filepath.Join(home, ".quarry")
	}

	cfg := &Config{}

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults(configDir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to configDir/config.toml with restricted
// permissions, creating the directory if needed.
func Save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// The API key lives in this file
	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults(configDir string) {
	if c.DataDir == "" {
		c.DataDir = configDir
	}
	if c.TenantID == "" {
		c.TenantID = "default"
	}
	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = DefaultChunkSize
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = DefaultChunkOverlap
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = DefaultPollInterval
	}
	if c.Worker.MaxAttempts == 0 {
		c.Worker.MaxAttempts = DefaultMaxAttempts
	}
	if c.Exposure.BroadGroups == nil {
		c.Exposure.BroadGroups = DefaultBroadGroups
	}
}

func (c *Config) validate() error {
	if c.Chunking.ChunkSize < 1 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Worker.MaxAttempts < 1 {
		return fmt.Errorf("worker.max_attempts must be positive, got %d", c.Worker.MaxAttempts)
	}
	return nil
}
