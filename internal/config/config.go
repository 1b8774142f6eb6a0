package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	// File receives log output in terminal mode so the UI is not overwritten.
	File string `yaml:"file"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Local  *LocalConfig  `yaml:"local,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// LocalConfig points at a persisted index directory built offline.
type LocalConfig struct {
	Path string `yaml:"path"`
	// Watch reloads the index when the offline indexer rewrites it.
	Watch bool `yaml:"watch"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig controls the nearest-neighbour lookup.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// CompletionConfig configures the hosted chat-completion provider.
type CompletionConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// TimeoutSecs of 0 leaves the call unbounded.
	TimeoutSecs int `yaml:"timeout_secs"`
}

// CacheConfig enables the Redis query-embedding cache when Addrs is set.
type CacheConfig struct {
	Addrs      []string `yaml:"addrs"`
	Password   string   `yaml:"password"`
	TTLSeconds int      `yaml:"ttl_seconds"`
}

// StreamConfig sets the typing pace of streamed answers.
type StreamConfig struct {
	// DelayMillis is the pause between words. Unset means 30; 0 streams
	// without pausing.
	DelayMillis *int `yaml:"delay_ms"`
}

// Delay returns the pause between streamed words.
func (s StreamConfig) Delay() time.Duration {
	if s.DelayMillis == nil {
		return defaultStreamDelay
	}
	return time.Duration(*s.DelayMillis) * time.Millisecond
}

const defaultStreamDelay = 30 * time.Millisecond

// WebConfig holds HTTP server settings for the browser UI.
type WebConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	SessionCookie   string `yaml:"session_cookie"`
	MaxSessionCount int    `yaml:"max_sessions"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Env         string            `yaml:"env"` // local, dev, prod
	Logging     LoggingConfig     `yaml:"logging"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Completion  CompletionConfig  `yaml:"completion"`
	Cache       CacheConfig       `yaml:"cache"`
	Stream      StreamConfig      `yaml:"stream"`
	Web         WebConfig         `yaml:"web"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} and ${VAR:-default}
// references, then applies defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	data = expandEnvVars(data)
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/gitagpt/config.yaml.
// If neither exists, it returns defaults with the user path; nothing is
// written until SaveIfMissing.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), userPath, nil
}

// SaveIfMissing writes cfg to path unless a file already exists there.
func SaveIfMissing(path string, cfg *AppConfig) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return Save(path, cfg)
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gitagpt", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{
		Env:     "local",
		Logging: LoggingConfig{Level: "info", File: "gitagpt.log"},
		Embedder: EmbedderConfig{
			BaseURL:   "http://localhost:8080/v1",
			APIKeyEnv: "EMBEDDINGS_API_KEY",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
		},
		VectorStore: VectorStoreConfig{
			Type:  "local",
			Local: &LocalConfig{Path: "bhagvatgeeta_new"},
		},
		Completion: CompletionConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			APIKeyEnv: "GROQ_API_KEY",
			Model:     "gemma2-9b-it",
			MaxTokens: 4096,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *AppConfig) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "local"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Embedder.APIKeyEnv == "" {
		c.Embedder.APIKeyEnv = "EMBEDDINGS_API_KEY"
	}
	if c.Embedder.Model == "" {
		c.Embedder.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedder.TimeoutSecs == 0 {
		c.Embedder.TimeoutSecs = 30
	}
	if c.VectorStore.Type == "" {
		c.VectorStore.Type = "local"
	}
	if c.VectorStore.Type == "local" && c.VectorStore.Local == nil {
		c.VectorStore.Local = &LocalConfig{Path: "bhagvatgeeta_new"}
	}
	if c.VectorStore.Qdrant != nil && c.VectorStore.Qdrant.TimeoutSecs == 0 {
		c.VectorStore.Qdrant.TimeoutSecs = 15
	}
	// Matches the similarity retriever default of the original deployment.
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 4
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Completion.APIKeyEnv == "" {
		c.Completion.APIKeyEnv = "GROQ_API_KEY"
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "gemma2-9b-it"
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 4096
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 24 * 60 * 60
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8501"
	}
	if c.Web.ReadTimeoutSec <= 0 {
		c.Web.ReadTimeoutSec = 10
	}
	if c.Web.ShutdownSec <= 0 {
		c.Web.ShutdownSec = 10
	}
	if c.Web.SessionCookie == "" {
		c.Web.SessionCookie = "gitagpt_session"
	}
	if c.Web.MaxSessionCount <= 0 {
		c.Web.MaxSessionCount = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *AppConfig) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be local, dev or prod, got %q", c.Env)
	}
	switch c.VectorStore.Type {
	case "local":
		if c.VectorStore.Local == nil || c.VectorStore.Local.Path == "" {
			return errors.New("vector_store.local.path is required")
		}
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" || c.VectorStore.Qdrant.Collection == "" {
			return errors.New("vector_store.qdrant.url and collection are required")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.Embedder.BaseURL == "" {
		return errors.New("embedder.base_url is required")
	}
	if c.Stream.DelayMillis != nil && *c.Stream.DelayMillis < 0 {
		return fmt.Errorf("stream.delay_ms must not be negative, got %d", *c.Stream.DelayMillis)
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
