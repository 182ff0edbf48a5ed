// Package store persists example pairs, glossary terms and translation runs
// in a single SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/lexitran/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS example_pairs (
		id TEXT PRIMARY KEY,
		english_text TEXT NOT NULL,
		telugu_text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- glossary holds mandatory English -> Telugu legal terminology
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		english_term TEXT NOT NULL UNIQUE,
		telugu_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_runs (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		total INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		model TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sentence_results (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		source_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT,
		iterations INTEGER,
		glossary_issues TEXT,
		critique TEXT,
		latency_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES translation_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_sentence_source ON sentence_results(source_text, state);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// AddExample stores an example pair with its embedding. An empty ID is
// replaced with a new UUID, which is returned.
func (s *Store) AddExample(ctx context.Context, pair internal.ExamplePair) (string, error) {
	if len(pair.Embedding) == 0 {
		return "", errors.New("example pair has no embedding")
	}
	id := pair.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO example_pairs (id, english_text, telugu_text, embedding) VALUES (?, ?, ?, ?)`,
		id, normalizeText(pair.SourceText), normalizeText(pair.TargetText), encodeVector(pair.Embedding))
	return id, err
}

// CountExamples returns the number of stored example pairs.
func (s *Store) CountExamples(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM example_pairs`).Scan(&n)
	return n, err
}

// SearchExamples returns the k pairs most similar to query by cosine
// similarity, best first. Rows whose embedding dimension differs from the
// query are skipped.
func (s *Store) SearchExamples(ctx context.Context, query []float32, k int) ([]internal.ExamplePair, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, english_text, telugu_text, embedding FROM example_pairs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []internal.ExamplePair
	for rows.Next() {
		var p internal.ExamplePair
		var blob []byte
		if err := rows.Scan(&p.ID, &p.SourceText, &p.TargetText, &blob); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		if len(vec) != len(query) {
			continue
		}
		p.Score = cosine(query, vec)
		scored = append(scored, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID          string
	EnglishTerm string
	TeluguTerm  string
	CreatedAt   time.Time
}

// AddGlossaryTerm inserts or replaces a glossary entry. Replacing a term
// moves it to the end of the insertion order.
func (s *Store) AddGlossaryTerm(ctx context.Context, englishTerm, teluguTerm string) error {
	englishTerm, teluguTerm = normalizeText(englishTerm), normalizeText(teluguTerm)
	if englishTerm == "" || teluguTerm == "" {
		return errors.New("glossary terms must not be empty")
	}
	id := fmt.Sprintf("gl_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, english_term, telugu_term) VALUES (?, ?, ?)`,
		id, englishTerm, teluguTerm)
	return err
}

// ListGlossaryTerms returns all glossary entries in insertion order.
func (s *Store) ListGlossaryTerms(ctx context.Context) ([]GlossaryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, english_term, telugu_term, created_at FROM glossary ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.EnglishTerm, &e.TeluguTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID or English term.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, idOrTerm string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ? OR english_term = ?`, idOrTerm, normalizeText(idOrTerm))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SaveRun stores a run header with its per-sentence results in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run internal.TranslationRun, results []internal.TranslationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO translation_runs (id, document, total, failed, model, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Document, run.Total, run.Failed, run.Model, run.Timestamp); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sentence_results (run_id, idx, source_text, translated_text, state, error, iterations, glossary_issues, critique, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.Index, normalizeText(r.SourceSentence), r.TranslatedSentence, string(r.State), r.Error,
			r.Iterations, strings.Join(r.GlossaryIssues, "\n"), r.Critique, r.Latency.Milliseconds()); err != nil {
			return fmt.Errorf("failed to save sentence %d: %w", r.Index, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns recorded runs, newest first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.TranslationRun, error) {
	query := `SELECT id, document, total, failed, COALESCE(model, ''), created_at FROM translation_runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []internal.TranslationRun
	for rows.Next() {
		var r internal.TranslationRun
		if err := rows.Scan(&r.ID, &r.Document, &r.Total, &r.Failed, &r.Model, &r.Timestamp); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its sentence results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sentence_results WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM translation_runs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// LookupSentence returns the most recent completed translation of an
// identical normalised sentence.
func (s *Store) LookupSentence(ctx context.Context, sentence string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM sentence_results WHERE source_text = ? AND state = ? ORDER BY created_at DESC LIMIT 1`,
		normalizeText(sentence), string(internal.StateCompleted)).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return translated, true, nil
}
