// Package config handles configuration loading from YAML and
// environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	LLM           LLMConfig           `yaml:"llm"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Auth          AuthConfig          `yaml:"auth"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Listen string `yaml:"listen"` // e.g., "localhost:8484"
	Host   string `yaml:"host"`   // Bind host
	Port   int    `yaml:"port"`   // Bind port (alternative to listen)
}

// StorageConfig configures SQLite persistence and audio storage.
type StorageConfig struct {
	DBPath         string `yaml:"db_path"`
	AudioDir       string `yaml:"audio_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	RetentionDays  int    `yaml:"retention_days"` // 0 = keep forever
}

// LLMConfig configures the language model providers. API keys come from
// the environment, never from the config file.
type LLMConfig struct {
	DefaultProvider string  `yaml:"default_provider"`
	DefaultModel    string  `yaml:"default_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`

	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	DeepseekAPIKey  string `yaml:"-"`
}

// TranscriptionConfig configures the speech-to-text client.
type TranscriptionConfig struct {
	ModelID string `yaml:"model_id"`

	APIKey string `yaml:"-"` // ELEVENLABS_API_KEY
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	Token string `yaml:"token"` // Bearer token for API access
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: "localhost:8484",
		},
		Storage: StorageConfig{
			DBPath:         "", // Set in Load based on platform
			AudioDir:       "", // Set in Load based on platform
			MaxUploadBytes: 512 << 20,
			RetentionDays:  0,
		},
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			DefaultModel:    "claude-3-7-sonnet-latest",
			Temperature:     0.0,
			MaxTokens:       4096,
		},
		Transcription: TranscriptionConfig{
			ModelID: "scribe_v1",
		},
		Auth: AuthConfig{
			Token: "", // Generated on first run if empty
		},
	}
}

// ConfigDir returns the platform-specific config directory.
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "meetscribe"), nil
	default: // linux, darwin, etc.
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, ".config", "meetscribe"), nil
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file, with environment variable
// overrides. A missing file is not an error; defaults are written back
// together with a freshly generated auth token.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting config directory: %w", err)
	}
	cfg.Storage.DBPath = filepath.Join(dir, "meetscribe.db")
	cfg.Storage.AudioDir = filepath.Join(dir, "audio")

	if path == "" {
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("getting default config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file - fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Auth.Token == "" {
		cfg.Auth.Token, err = generateToken()
		if err != nil {
			return nil, fmt.Errorf("generating auth token: %w", err)
		}
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("saving config: %w", err)
		}
	}

	return cfg, nil
}

// Save writes the config to the specified path with secure permissions.
// API keys carry no yaml tags and never land on disk.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// config. Provider API keys are environment-only.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEETSCRIBE_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("MEETSCRIBE_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("MEETSCRIBE_AUDIO_DIR"); v != "" {
		c.Storage.AudioDir = v
	}
	if v := os.Getenv("MEETSCRIBE_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}

	c.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.LLM.DeepseekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	c.Transcription.APIKey = os.Getenv("ELEVENLABS_API_KEY")
}

// ProviderAPIKey returns the configured key for a provider, "" when it
// is not set.
func (c *LLMConfig) ProviderAPIKey(provider string) string {
	switch provider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "deepseek":
		return c.DeepseekAPIKey
	}
	return ""
}

// AvailableProviders returns the providers that have an API key
// configured, in the given preference order.
func (c *LLMConfig) AvailableProviders(order []string) []string {
	var available []string
	for _, p := range order {
		if c.ProviderAPIKey(p) != "" {
			available = append(available, p)
		}
	}
	return available
}

// generateToken generates a cryptographically random auth token.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "meetscribe_" + hex.EncodeToString(bytes), nil
}

// ListenAddr returns the listen address, handling host:port vs listen
// field.
func (c *ServerConfig) ListenAddr() string {
	if c.Listen != "" {
		return c.Listen
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 8484
	}
	return fmt.Sprintf("%s:%d", host, port)
}
