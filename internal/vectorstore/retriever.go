package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/embedding"
)

// DefaultTopK is the number of examples returned per query.
const DefaultTopK = 5

// Retriever embeds a sentence and looks up its nearest example pairs.
type Retriever struct {
	store    Store
	embedder embedding.Embedder
	k        int
	logger   *zap.Logger
}

func NewRetriever(store Store, embedder embedding.Embedder, k int, logger *zap.Logger) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, embedder: embedder, k: k, logger: logger}
}

// Retrieve never fails: an embedding or store error is logged and an empty
// slice returned.
func (r *Retriever) Retrieve(ctx context.Context, text string) []internal.ExamplePair {
	pairs, err := r.Search(ctx, text)
	if err != nil {
		r.logger.Warn("example retrieval failed, continuing without examples", zap.Error(err))
		return []internal.ExamplePair{}
	}
	return pairs
}

// Search is Retrieve with the error exposed. Every failure wraps
// ErrRetrievalUnavailable.
func (r *Retriever) Search(ctx context.Context, text string) ([]internal.ExamplePair, error) {
	if strings.TrimSpace(text) == "" {
		return []internal.ExamplePair{}, nil
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalUnavailable, err)
	}

	pairs, err := r.store.Search(ctx, vec, r.k)
	if err != nil {
		if errors.Is(err, ErrRetrievalUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	if len(pairs) > r.k {
		pairs = pairs[:r.k]
	}
	if pairs == nil {
		pairs = []internal.ExamplePair{}
	}
	return pairs, nil
}

// Ingest embeds the English side of a pair and adds it to the store.
func (r *Retriever) Ingest(ctx context.Context, english, telugu string) error {
	english, telugu = strings.TrimSpace(english), strings.TrimSpace(telugu)
	if english == "" || telugu == "" {
		return errors.New("both sides of an example pair are required")
	}
	vec, err := r.embedder.Embed(ctx, english)
	if err != nil {
		return fmt.Errorf("embedding example: %w", err)
	}
	return r.store.Add(ctx, internal.ExamplePair{SourceText: english, TargetText: telugu, Embedding: vec})
}
