// Package local loads a persisted passage index from a directory on disk
// and serves brute-force cosine similarity search from memory.
package local

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

// FileName is the SQLite file inside an index directory.
const FileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS passages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	chapter   INTEGER NOT NULL,
	verse     INTEGER NOT NULL,
	text      TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_passages_ref ON passages(chapter, verse);
`

// Storage is an in-memory copy of a persisted index.
// It is immutable after Open and safe for concurrent searches.
type Storage struct {
	dimension int
	passages  []domain.Passage
	vectors   [][]float32 // L2-normalized
}

// Open loads every passage of the index directory into memory.
func Open(ctx context.Context, dir string) (*Storage, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrIndexNotFound)
		}
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT chapter, verse, text, embedding FROM passages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading passages: %w", err)
	}
	defer rows.Close()

	s := &Storage{}
	for rows.Next() {
		var p domain.Passage
		var blob []byte
		if err := rows.Scan(&p.Chapter, &p.Verse, &p.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("passage %d.%d: %w", p.Chapter, p.Verse, err)
		}
		if s.dimension == 0 {
			s.dimension = len(vec)
		} else if len(vec) != s.dimension {
			return nil, fmt.Errorf("passage %d.%d has %d dimensions, want %d: %w",
				p.Chapter, p.Verse, len(vec), s.dimension, domain.ErrDimensionMismatch)
		}
		s.passages = append(s.passages, p)
		s.vectors = append(s.vectors, normalize(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading passages: %w", err)
	}
	return s, nil
}

// Len returns the number of indexed passages.
func (s *Storage) Len() int { return len(s.passages) }

// Dimension returns the vector size of the index, 0 when empty.
func (s *Storage) Dimension() int { return s.dimension }

// Search returns the topK passages by cosine similarity, best first.
func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(vector), s.dimension, domain.ErrDimensionMismatch)
	}
	q := normalize(vector)

	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], q)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Passage: s.passages[j], Score: scores[j]})
	}
	return results, nil
}

// Close releases nothing; the index lives in memory.
func (s *Storage) Close() error { return nil }

// Writer builds an index directory. It is used by the offline indexer.
// Passages go to a build file next to index.db; Commit replaces index.db
// with it in one rename, so readers never load a partial index.
type Writer struct {
	mu        sync.Mutex
	db        *sql.DB
	dimension int
	buildPath string
	path      string
}

// Create starts a new build in dir. The published index, if any, is left
// untouched until Commit.
func Create(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	buildPath := path + ".tmp"
	if err := os.Remove(buildPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale build: %w", err)
	}
	db, err := sql.Open("sqlite3", buildPath)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Writer{db: db, buildPath: buildPath, path: path}, nil
}

// Init clears previous passages and records the vector dimension.
func (w *Writer) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.db.ExecContext(ctx, `DELETE FROM passages`); err != nil {
		return fmt.Errorf("clearing passages: %w", err)
	}
	if _, err := w.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta(key, value) VALUES ('dimension', ?)`, fmt.Sprint(dimension)); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}
	w.dimension = dimension
	return nil
}

// Upsert appends passages and their vectors in one transaction.
func (w *Writer) Upsert(ctx context.Context, passages []domain.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return errors.New("passages and vectors length mismatch")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, v := range vectors {
		if len(v) != w.dimension {
			return domain.ErrDimensionMismatch
		}
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO passages(chapter, verse, text, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range passages {
		if _, err := stmt.ExecContext(ctx, p.Chapter, p.Verse, p.Text, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("inserting passage %d.%d: %w", p.Chapter, p.Verse, err)
		}
	}
	return tx.Commit()
}

// Commit publishes the build as the directory's index.
func (w *Writer) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.db == nil {
		return errors.New("writer is closed")
	}
	err := w.db.Close()
	w.db = nil
	if err != nil {
		return fmt.Errorf("closing build: %w", err)
	}
	if err := os.Rename(w.buildPath, w.path); err != nil {
		return fmt.Errorf("publishing index: %w", err)
	}
	return nil
}

// Close discards an uncommitted build. It is a no-op after Commit.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	if w.buildPath != "" {
		_ = os.Remove(w.buildPath)
	}
	return err
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob: len=%d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
