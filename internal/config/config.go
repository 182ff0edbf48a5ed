// Package config loads lexitran configuration with viper.
//
// Precedence (highest first): flags bound by the caller, LEXITRAN_* environment
// variables, the config file, defaults. Nested keys map to environment names by
// replacing "." with "_": model.api_key -> LEXITRAN_MODEL_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "LEXITRAN"

// DefaultFile is read when no --config path is given and the file exists.
const DefaultFile = "lexitran.yaml"

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Model       ModelConfig       `mapstructure:"model"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Glossary    GlossaryConfig    `mapstructure:"glossary"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Store       StoreConfig       `mapstructure:"store"`
	Server      ServerConfig      `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig selects the tool-calling language model.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // tei, ollama, openai, gemini, fastembed
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	CacheDir string `mapstructure:"cache_dir"`
}

type VectorStoreConfig struct {
	Backend       string `mapstructure:"backend"` // mongo, qdrant, chromem, sqlite, none
	URI           string `mapstructure:"uri"`
	Database      string `mapstructure:"database"`
	Collection    string `mapstructure:"collection"`
	Index         string `mapstructure:"index"`
	NumCandidates int    `mapstructure:"num_candidates"`
	Path          string `mapstructure:"path"`
	TopK          int    `mapstructure:"top_k"`
	VectorSize    int    `mapstructure:"vector_size"`
}

type GlossaryConfig struct {
	Path     string `mapstructure:"path"`
	UseStore bool   `mapstructure:"use_store"`
}

type PipelineConfig struct {
	MinSentenceLength int           `mapstructure:"min_sentence_length"`
	MaxIterations     int           `mapstructure:"max_iterations"`
	SentenceTimeout   time.Duration `mapstructure:"sentence_timeout"`
	Sanitize          bool          `mapstructure:"sanitize"`
	ReuseMemory       bool          `mapstructure:"reuse_memory"`
}

type StoreConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers every key with its default on v. Keys unknown to
// viper are not picked up from the environment, so all of them are listed.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.max_tokens", 2048)

	v.SetDefault("embedding.provider", "tei")
	v.SetDefault("embedding.model", "intfloat/e5-small")
	v.SetDefault("embedding.base_url", "http://localhost:8081")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.cache_dir", "")

	v.SetDefault("vector_store.backend", "mongo")
	v.SetDefault("vector_store.uri", "")
	v.SetDefault("vector_store.database", "translations")
	v.SetDefault("vector_store.collection", "memory")
	v.SetDefault("vector_store.index", "vector_index")
	v.SetDefault("vector_store.num_candidates", 100)
	v.SetDefault("vector_store.path", "./data/examples")
	v.SetDefault("vector_store.top_k", 5)
	v.SetDefault("vector_store.vector_size", 384)

	v.SetDefault("glossary.path", "glossary.json")
	v.SetDefault("glossary.use_store", false)

	v.SetDefault("pipeline.min_sentence_length", 10)
	v.SetDefault("pipeline.max_iterations", 10)
	v.SetDefault("pipeline.sentence_timeout", time.Duration(0))
	v.SetDefault("pipeline.sanitize", false)
	v.SetDefault("pipeline.reuse_memory", false)

	v.SetDefault("store.path", "./data/lexitran.db")
	v.SetDefault("store.disabled", false)

	v.SetDefault("server.addr", ":8080")
}

// Load reads configuration into a Config. path may be empty, in which case
// DefaultFile is read if present. Flags must already be bound on v.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", DefaultFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyKeyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyKeyFallbacks fills empty API keys and the Mongo URI from the
// providers' conventional environment variables.
func (c *Config) applyKeyFallbacks() {
	if c.Model.APIKey == "" {
		c.Model.APIKey = providerKey(c.Model.Provider)
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = providerKey(c.Embedding.Provider)
	}
	if c.VectorStore.URI == "" && c.VectorStore.Backend == "mongo" {
		c.VectorStore.URI = os.Getenv("MONGODB_URI")
	}
}

func providerKey(provider string) string {
	switch provider {
	case "gemini":
		if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

var (
	modelProviders     = []string{"gemini", "openai", "openrouter", "anthropic", "ollama"}
	embeddingProviders = []string{"tei", "ollama", "openai", "gemini", "fastembed"}
	vectorBackends     = []string{"mongo", "qdrant", "chromem", "sqlite", "none"}
)

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.Model.Provider, modelProviders) {
		errs = append(errs, fmt.Errorf("model.provider %q not one of %v", c.Model.Provider, modelProviders))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name is required"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature %.2f out of range [0,2]", c.Model.Temperature))
	}
	if !oneOf(c.Embedding.Provider, embeddingProviders) {
		errs = append(errs, fmt.Errorf("embedding.provider %q not one of %v", c.Embedding.Provider, embeddingProviders))
	}
	if !oneOf(c.VectorStore.Backend, vectorBackends) {
		errs = append(errs, fmt.Errorf("vector_store.backend %q not one of %v", c.VectorStore.Backend, vectorBackends))
	}
	if c.VectorStore.TopK <= 0 {
		errs = append(errs, fmt.Errorf("vector_store.top_k must be positive, got %d", c.VectorStore.TopK))
	}
	if c.VectorStore.NumCandidates < c.VectorStore.TopK {
		errs = append(errs, fmt.Errorf("vector_store.num_candidates (%d) must be >= top_k (%d)", c.VectorStore.NumCandidates, c.VectorStore.TopK))
	}
	if c.Pipeline.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_iterations must be positive, got %d", c.Pipeline.MaxIterations))
	}
	if c.Pipeline.MinSentenceLength < 0 {
		errs = append(errs, fmt.Errorf("pipeline.min_sentence_length must not be negative, got %d", c.Pipeline.MinSentenceLength))
	}
	if c.Pipeline.SentenceTimeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.sentence_timeout must not be negative, got %s", c.Pipeline.SentenceTimeout))
	}

	return errors.Join(errs...)
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
