package vector

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

func init() {
	// Snapshots embed whole documents; JSON-decoded metadata holds
	// []interface{} and map[string]interface{} values behind interfaces.
	gob.Register([]interface{}(nil))
	gob.Register(map[string]interface{}(nil))
}

// Entry is one (embedding, document) pair in the store.
type Entry struct {
	DocID    string
	Vector   []float32
	Document *models.Document
}

// Result is one scored document from a similarity search.
type Result struct {
	Document *models.Document
	Score    float64 // cosine similarity, in [-1, 1]
}

// Store is an exact-nearest-neighbor vector store. Entries are additive:
// Add appends without touching existing vectors. Snapshots persist to one
// gob file per source platform under the store directory; a missing or
// corrupt snapshot is reported as ErrIndexUnavailable so the caller can
// start cold with an empty store.
type Store struct {
	dir    string
	logger arbor.ILogger

	mu          sync.RWMutex
	initialized bool
	entries     []Entry
}

// NewStore creates a store that persists snapshots under dir.
func NewStore(dir string, logger arbor.ILogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Initialize creates a fresh, empty store, discarding any in-memory entries.
func (s *Store) Initialize() {
	s.mu.Lock()
	s.entries = nil
	s.initialized = true
	s.mu.Unlock()
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Add appends entries to the store. It fails with ErrNotInitialized when the
// store has never been created or loaded.
func (s *Store) Add(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return interfaces.ErrNotInitialized
	}
	for _, e := range entries {
		if e.Document == nil || len(e.Vector) == 0 {
			return fmt.Errorf("vector entry requires a document and a non-empty vector")
		}
		if e.DocID == "" {
			e.DocID = e.Document.ID
		}
		s.entries = append(s.entries, e)
	}
	return nil
}

// Search returns the k most similar documents to the query embedding,
// descending by cosine similarity. An uninitialized store is reported as
// ErrIndexUnavailable.
func (s *Store) Search(query []float32, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, interfaces.ErrIndexUnavailable
	}
	if len(query) == 0 || len(s.entries) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(s.entries))
	for i := range s.entries {
		sim, ok := cosineSimilarity(query, s.entries[i].Vector)
		if !ok {
			continue
		}
		results = append(results, Result{Document: s.entries[i].Document, Score: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// snapshotPath returns the gob file holding one platform's entries.
func (s *Store) snapshotPath(source string) string {
	return filepath.Join(s.dir, source+".gob")
}

// Persist writes the entries belonging to source to its snapshot file.
func (s *Store) Persist(source string) error {
	s.mu.RLock()
	subset := make([]Entry, 0)
	for _, e := range s.entries {
		if e.Document != nil && e.Document.Source == source {
			subset = append(subset, e)
		}
	}
	s.mu.RUnlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create index directory %s: %w", s.dir, err)
	}

	path := s.snapshotPath(source)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(subset); err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", path, err)
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("source", source).
			Int("entries", len(subset)).
			Msg("Vector index persisted")
	}
	return nil
}

// Load reads a platform snapshot and appends its entries, marking the store
// initialized. Missing or corrupt snapshots return ErrIndexUnavailable; the
// caller decides whether to Initialize an empty store instead.
func (s *Store) Load(source string) error {
	path := s.snapshotPath(source)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: no snapshot for %s: %v", interfaces.ErrIndexUnavailable, source, err)
	}
	defer file.Close()

	var entries []Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("%w: corrupt snapshot for %s: %v", interfaces.ErrIndexUnavailable, source, err)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entries...)
	s.initialized = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info().
			Str("source", source).
			Int("entries", len(entries)).
			Msg("Vector index loaded")
	}
	return nil
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors are not comparable.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
