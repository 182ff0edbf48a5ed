// Package vectorstore holds previously translated example pairs and finds the
// ones nearest to a query embedding.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/embedding"
)

var (
	// ErrRetrievalUnavailable marks a search that could not reach the store.
	// Callers degrade to an empty result.
	ErrRetrievalUnavailable = errors.New("example retrieval unavailable")

	ErrInvalidConfig = errors.New("invalid vector store configuration")
)

// Store is a similarity index over example pairs.
type Store interface {
	// Search returns at most k pairs ordered by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]internal.ExamplePair, error)
	// Add stores a pair; pair.Embedding must be set.
	Add(ctx context.Context, pair internal.ExamplePair) error
	Close() error
}

// Counter is implemented by stores that can report their size.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

var (
	_ Counter = (*Mongo)(nil)
	_ Counter = (*Qdrant)(nil)
	_ Counter = (*Chromem)(nil)
	_ Counter = (*SQLite)(nil)
	_ Counter = (*Unavailable)(nil)
)

// Config selects a backend. Path is the directory used by the embedded
// backends (chromem, sqlite).
type Config struct {
	Backend       string
	URI           string
	Database      string
	Collection    string
	Index         string
	NumCandidates int
	Path          string
	VectorSize    int
}

// Open connects to the configured backend. A backend that cannot be reached
// yields an Unavailable store and a warning so that translation can still
// proceed without examples; only configuration errors are returned.
func Open(ctx context.Context, cfg Config, embedder embedding.Embedder, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "mongo":
		if cfg.URI == "" {
			logger.Warn("vector_store.uri is not set, translating without examples",
				zap.String("backend", cfg.Backend))
			return NewUnavailable(fmt.Errorf("%w: mongo URI required", ErrInvalidConfig)), nil
		}
		s, err = NewMongo(ctx, MongoConfig{
			URI:           cfg.URI,
			Database:      cfg.Database,
			Collection:    cfg.Collection,
			Index:         cfg.Index,
			NumCandidates: cfg.NumCandidates,
		})
	case "qdrant":
		s, err = NewQdrant(ctx, QdrantConfig{
			URI:        cfg.URI,
			Collection: cfg.Collection,
			VectorSize: uint64(cfg.VectorSize),
		})
	case "chromem":
		s, err = NewChromem(ChromemConfig{Path: cfg.Path, Collection: cfg.Collection}, embedder)
	case "sqlite":
		s, err = OpenSQLite(cfg.Path)
	case "", "none":
		logger.Info("example store disabled, translating without examples")
		return NewUnavailable(errors.New("no backend configured")), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}

	if errors.Is(err, ErrInvalidConfig) {
		return nil, err
	}
	if err != nil {
		logger.Warn("example store unavailable, translating without examples",
			zap.String("backend", cfg.Backend),
			zap.Error(err),
		)
		return NewUnavailable(err), nil
	}

	logger.Debug("example store ready", zap.String("backend", cfg.Backend))
	return s, nil
}

// Unavailable is a Store whose every operation fails with
// ErrRetrievalUnavailable.
type Unavailable struct {
	cause error
}

func NewUnavailable(cause error) *Unavailable {
	return &Unavailable{cause: cause}
}

func (u *Unavailable) Search(context.Context, []float32, int) ([]internal.ExamplePair, error) {
	return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, u.cause)
}

func (u *Unavailable) Add(context.Context, internal.ExamplePair) error {
	return fmt.Errorf("%w: %v", ErrRetrievalUnavailable, u.cause)
}

func (u *Unavailable) Count(context.Context) (int, error) {
	return 0, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, u.cause)
}

func (u *Unavailable) Close() error { return nil }
