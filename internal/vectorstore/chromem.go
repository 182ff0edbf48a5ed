package vectorstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/embedding"
)

const metaTelugu = "telugu_text"

// ChromemConfig configures the embedded chromem-go backend. An empty Path
// keeps the collection in memory.
type ChromemConfig struct {
	Path       string
	Collection string
	Compress   bool
}

// Chromem keeps example pairs in an embedded chromem-go database. The
// document content is the English sentence; the Telugu side is metadata.
type Chromem struct {
	db   *chromem.DB
	coll *chromem.Collection
	mu   sync.RWMutex
}

func NewChromem(cfg ChromemConfig, embedder embedding.Embedder) (*Chromem, error) {
	if cfg.Collection == "" {
		cfg.Collection = "memory"
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	var embedFunc chromem.EmbeddingFunc
	if embedder != nil {
		embedFunc = embedder.Embed
	} else {
		embedFunc = func(context.Context, string) ([]float32, error) {
			return nil, fmt.Errorf("no embedder configured")
		}
	}

	coll, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}

	return &Chromem{db: db, coll: coll}, nil
}

func (c *Chromem) Search(ctx context.Context, vector []float32, k int) ([]internal.ExamplePair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// chromem requires nResults <= document count.
	count := c.coll.Count()
	if count == 0 || k <= 0 {
		return []internal.ExamplePair{}, nil
	}
	if k > count {
		k = count
	}

	results, err := c.coll.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	pairs := make([]internal.ExamplePair, 0, len(results))
	for _, r := range results {
		pairs = append(pairs, internal.ExamplePair{
			ID:         r.ID,
			SourceText: r.Content,
			TargetText: r.Metadata[metaTelugu],
			Score:      r.Similarity,
		})
	}
	return pairs, nil
}

func (c *Chromem) Add(ctx context.Context, pair internal.ExamplePair) error {
	if len(pair.Embedding) == 0 {
		return fmt.Errorf("example pair has no embedding")
	}
	id := pair.ID
	if id == "" {
		id = uuid.New().String()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.coll.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   pair.SourceText,
		Embedding: pair.Embedding,
		Metadata:  map[string]string{metaTelugu: pair.TargetText},
	})
	if err != nil {
		return fmt.Errorf("adding example: %w", err)
	}
	return nil
}

// Count returns the number of stored pairs.
func (c *Chromem) Count(context.Context) (int, error) {
	return c.coll.Count(), nil
}

// Close is a no-op; persistent chromem writes each document on Add.
func (c *Chromem) Close() error { return nil }
