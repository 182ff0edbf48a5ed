package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.Name)
	assert.Zero(t, cfg.Model.Temperature)
	assert.Equal(t, "intfloat/e5-small", cfg.Embedding.Model)
	assert.Equal(t, 5, cfg.VectorStore.TopK)
	assert.Equal(t, 100, cfg.VectorStore.NumCandidates)
	assert.Equal(t, "vector_index", cfg.VectorStore.Index)
	assert.Equal(t, "translations", cfg.VectorStore.Database)
	assert.Equal(t, "memory", cfg.VectorStore.Collection)
	assert.Equal(t, "glossary.json", cfg.Glossary.Path)
	assert.Equal(t, 10, cfg.Pipeline.MinSentenceLength)
	assert.Equal(t, 10, cfg.Pipeline.MaxIterations)
	assert.False(t, cfg.Pipeline.Sanitize)
	assert.False(t, cfg.Pipeline.ReuseMemory)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	content := `
model:
  provider: ollama
  name: llama3.1:8b
vector_store:
  backend: chromem
  top_k: 3
pipeline:
  sentence_timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3.1:8b", cfg.Model.Name)
	assert.Equal(t, "chromem", cfg.VectorStore.Backend)
	assert.Equal(t, 3, cfg.VectorStore.TopK)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.SentenceTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("vector_store:\n  top_k: 3\n"), 0o600))
	t.Setenv("LEXITRAN_VECTOR_STORE_TOP_K", "7")
	t.Setenv("LEXITRAN_PIPELINE_REUSE_MEMORY", "true")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.VectorStore.TopK)
	assert.True(t, cfg.Pipeline.ReuseMemory)
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Model.APIKey)
}

func TestLoad_MongoURIFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MONGODB_URI", "mongodb+srv://cluster0.example.net")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.VectorStore.Backend)
	assert.Equal(t, "mongodb+srv://cluster0.example.net", cfg.VectorStore.URI)
}

func TestLoad_ExplicitMongoURIWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MONGODB_URI", "mongodb://from-env")
	t.Setenv("LEXITRAN_VECTOR_STORE_URI", "mongodb://explicit")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://explicit", cfg.VectorStore.URI)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(viper.New(), "does-not-exist.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Model:       ModelConfig{Provider: "gemini", Name: "gemini-2.5-flash"},
			Embedding:   EmbeddingConfig{Provider: "tei"},
			VectorStore: VectorStoreConfig{Backend: "mongo", TopK: 5, NumCandidates: 100},
			Pipeline:    PipelineConfig{MaxIterations: 10, MinSentenceLength: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Model.Provider = "bard" }, wantErr: "model.provider"},
		{name: "unknown backend", mutate: func(c *Config) { c.VectorStore.Backend = "pinecone" }, wantErr: "vector_store.backend"},
		{name: "zero top k", mutate: func(c *Config) { c.VectorStore.TopK = 0 }, wantErr: "top_k"},
		{name: "candidates below k", mutate: func(c *Config) { c.VectorStore.NumCandidates = 2 }, wantErr: "num_candidates"},
		{name: "zero iterations", mutate: func(c *Config) { c.Pipeline.MaxIterations = 0 }, wantErr: "max_iterations"},
		{name: "negative timeout", mutate: func(c *Config) { c.Pipeline.SentenceTimeout = -time.Second }, wantErr: "sentence_timeout"},
		{name: "hot temperature", mutate: func(c *Config) { c.Model.Temperature = 3 }, wantErr: "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
