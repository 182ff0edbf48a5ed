// Package embedding turns sentences into vectors for example retrieval.
//
// The same Embedder must be used for ingestion and for queries; vectors from
// different models are not comparable.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	ErrEmptyInput      = errors.New("embedding input is empty")
	ErrInvalidConfig   = errors.New("invalid embedding configuration")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	CacheDir string
}

// New builds the Embedder named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case "", "tei":
		e, err = NewTEI(cfg.BaseURL, cfg.Model)
	case "ollama":
		e, err = NewOllama(cfg.BaseURL, cfg.Model)
	case "openai":
		e, err = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "gemini":
		e, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "fastembed":
		e, err = NewFastEmbed(FastEmbedConfig{Model: cfg.Model, CacheDir: cfg.CacheDir})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("embedder ready", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
	return e, nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
