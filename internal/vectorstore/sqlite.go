package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/store"
)

// SQLite adapts the example table of the local store. Search is a
// brute-force cosine scan, suitable for small example sets.
type SQLite struct {
	db    *store.Store
	owned bool
}

// NewSQLite wraps an already open store; Close leaves it open.
func NewSQLite(db *store.Store) *SQLite {
	return &SQLite{db: db}
}

// OpenSQLite opens examples.db inside dir.
func OpenSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: sqlite backend needs a path", ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	db, err := store.New(filepath.Join(dir, "examples.db"))
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db, owned: true}, nil
}

func (s *SQLite) Search(ctx context.Context, vector []float32, k int) ([]internal.ExamplePair, error) {
	pairs, err := s.db.SearchExamples(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = []internal.ExamplePair{}
	}
	return pairs, nil
}

func (s *SQLite) Add(ctx context.Context, pair internal.ExamplePair) error {
	_, err := s.db.AddExample(ctx, pair)
	return err
}

// Count returns the number of stored pairs.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	return s.db.CountExamples(ctx)
}

func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
