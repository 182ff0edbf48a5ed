/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal/critique"
	"github.com/valpere/lexitran/internal/embedding"
	"github.com/valpere/lexitran/internal/glossary"
	"github.com/valpere/lexitran/internal/llm"
	"github.com/valpere/lexitran/internal/orchestrator"
	"github.com/valpere/lexitran/internal/pipeline"
	"github.com/valpere/lexitran/internal/segmenter"
	"github.com/valpere/lexitran/internal/store"
	"github.com/valpere/lexitran/internal/tools"
	"github.com/valpere/lexitran/internal/validator"
	"github.com/valpere/lexitran/internal/vectorstore"
)

// components holds the collaborators built from configuration. Close
// releases them in reverse order.
type components struct {
	db        *store.Store
	embedder  embedding.Embedder
	examples  vectorstore.Store
	retriever *vectorstore.Retriever
	pipeline  *pipeline.Pipeline
}

func (c *components) Close() {
	if c.examples != nil {
		if err := c.examples.Close(); err != nil {
			logger.Warn("failed to close example store", zap.Error(err))
		}
	}
	if closer, ok := c.embedder.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close embedder", zap.Error(err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

// openStore opens the SQLite database unless store.disabled is set, in which
// case it returns nil.
func openStore() (*store.Store, error) {
	if cfg.Store.Disabled || cfg.Store.Path == "" {
		return nil, nil
	}
	db, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func mustOpenStore() (*store.Store, error) {
	db, err := openStore()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("the database is disabled (store.disabled) or store.path is empty")
	}
	return db, nil
}

func openEmbedder(ctx context.Context) (embedding.Embedder, error) {
	return embedding.New(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		CacheDir: cfg.Embedding.CacheDir,
	}, logger)
}

// openExamples builds the embedder, the example store and the retriever on c.
func (c *components) openExamples(ctx context.Context) error {
	emb, err := openEmbedder(ctx)
	if err != nil {
		return err
	}
	c.embedder = emb

	examples, err := vectorstore.Open(ctx, vectorstore.Config{
		Backend:       cfg.VectorStore.Backend,
		URI:           cfg.VectorStore.URI,
		Database:      cfg.VectorStore.Database,
		Collection:    cfg.VectorStore.Collection,
		Index:         cfg.VectorStore.Index,
		NumCandidates: cfg.VectorStore.NumCandidates,
		Path:          cfg.VectorStore.Path,
		VectorSize:    cfg.VectorStore.VectorSize,
	}, emb, logger)
	if err != nil {
		return err
	}
	c.examples = examples
	c.retriever = vectorstore.NewRetriever(examples, emb, cfg.VectorStore.TopK, logger)
	return nil
}

// loadGlossary reads the glossary file and, with glossary.use_store, appends
// the terms kept in the database.
func loadGlossary(ctx context.Context, db *store.Store) (*glossary.Glossary, error) {
	g, err := glossary.Load(cfg.Glossary.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Glossary.UseStore && db != nil {
		entries, err := db.ListGlossaryTerms(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read glossary from database: %w", err)
		}
		for _, e := range entries {
			g.Merge(e.EnglishTerm, e.TeluguTerm)
		}
	}
	logger.Debug("glossary loaded", zap.String("path", cfg.Glossary.Path), zap.Int("terms", g.Len()))
	return g, nil
}

// buildComponents wires the full translation stack from cfg.
func buildComponents(ctx context.Context) (*components, error) {
	c := &components{}

	db, err := openStore()
	if err != nil {
		return nil, err
	}
	c.db = db

	if err := c.openExamples(ctx); err != nil {
		c.Close()
		return nil, err
	}

	g, err := loadGlossary(ctx, db)
	if err != nil {
		c.Close()
		return nil, err
	}

	model, err := llm.New(ctx, llm.Config{
		Provider:    cfg.Model.Provider,
		Name:        cfg.Model.Name,
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	registry, err := tools.NewDefault(c.retriever, g, critique.New(model), logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	orch := orchestrator.New(model, registry, orchestrator.Config{
		MaxIterations:   cfg.Pipeline.MaxIterations,
		SentenceTimeout: cfg.Pipeline.SentenceTimeout,
		Sanitize:        cfg.Pipeline.Sanitize,
	}, logger, orchestrator.WithLanguageCheck(validator.New()))

	opts := pipeline.Options{MinLength: cfg.Pipeline.MinSentenceLength}
	if db != nil {
		opts.Recorder = db
		if cfg.Pipeline.ReuseMemory {
			opts.Memory = db
		}
	}
	c.pipeline = pipeline.New(orch, segmenter.New(), opts, logger)
	return c, nil
}
