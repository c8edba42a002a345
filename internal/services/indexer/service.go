package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/lexical"
	"github.com/ternarybob/suadeo/internal/services/vector"
)

// Result summarizes one indexing run over a source.
type Result struct {
	Source  string
	Indexed int
	Skipped int
}

// Service keeps the lexical and vector indexes in sync with the stored
// corpus. Indexing is incremental and idempotent: each (source, thread)
// is embedded once, tracked in the index tracking store, and re-running a
// source only processes threads not yet marked.
type Service struct {
	storage  interfaces.StorageManager
	embedder interfaces.EmbeddingService
	lexical  *lexical.Index
	vector   *vector.Store
	config   common.IndexingConfig
	logger   arbor.ILogger

	// Serializes indexing runs; queries keep reading the previous snapshot.
	mu sync.Mutex
}

// NewService creates the indexing service.
func NewService(
	storage interfaces.StorageManager,
	embedder interfaces.EmbeddingService,
	lexicalIndex *lexical.Index,
	vectorStore *vector.Store,
	config common.IndexingConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:  storage,
		embedder: embedder,
		lexical:  lexicalIndex,
		vector:   vectorStore,
		config:   config,
		logger:   logger,
	}
}

// Bootstrap loads persisted vector snapshots and rebuilds the lexical index
// from the stored corpus. A missing or corrupt snapshot is tolerated: the
// affected source starts cold and repopulates on the next indexing run.
func (s *Service) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vector.Initialize()
	for _, source := range models.PlatformIDs() {
		if err := s.vector.Load(source); err != nil {
			if errors.Is(err, interfaces.ErrIndexUnavailable) {
				s.logger.Warn().
					Str("source", source).
					Err(err).
					Msg("Vector snapshot unavailable, starting cold for source")
				continue
			}
			return fmt.Errorf("loading vector snapshot for %s: %w", source, err)
		}
	}

	if err := s.rebuildLexical(); err != nil {
		return fmt.Errorf("rebuilding lexical index: %w", err)
	}

	s.logger.Info().
		Int("vector_entries", s.vector.Size()).
		Int("lexical_documents", s.lexical.Size()).
		Msg("Indexes bootstrapped")
	return nil
}

// IndexSource embeds and indexes every stored thread of one source that has
// not been indexed yet, then persists the source's vector snapshot.
func (s *Service) IndexSource(ctx context.Context, source string) (*Result, error) {
	if _, err := models.LookupPlatform(source); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.storage.DocumentStorage().ListDocuments(&interfaces.ListOptions{
		Source: source,
		Limit:  s.config.BatchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents for %s: %w", source, err)
	}

	pending := make([]*models.Document, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		indexed, err := s.storage.IndexTrackingStorage().IsIndexed(doc.Source, doc.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("checking index state for %s: %w", models.IndexEntryKey(doc.Source, doc.ThreadID), err)
		}
		if indexed {
			skipped++
			continue
		}
		pending = append(pending, doc)
	}

	result := &Result{Source: source, Skipped: skipped}
	if len(pending) == 0 {
		s.logger.Info().
			Str("source", source).
			Int("skipped", skipped).
			Msg("No pending documents to index")
		return result, nil
	}

	texts := make([]string, len(pending))
	for i, doc := range pending {
		texts[i] = doc.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d documents for %s: %w", len(pending), source, err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedding count mismatch for %s: expected %d, got %d", source, len(pending), len(vectors))
	}

	entries := make([]vector.Entry, len(pending))
	for i, doc := range pending {
		entries[i] = vector.Entry{DocID: doc.ID, Vector: vectors[i], Document: doc}
	}
	if err := s.vector.Add(entries); err != nil {
		if !errors.Is(err, interfaces.ErrNotInitialized) {
			return nil, fmt.Errorf("adding vectors for %s: %w", source, err)
		}
		s.vector.Initialize()
		if err := s.vector.Add(entries); err != nil {
			return nil, fmt.Errorf("adding vectors for %s: %w", source, err)
		}
	}

	if err := s.rebuildLexical(); err != nil {
		return nil, fmt.Errorf("rebuilding lexical index: %w", err)
	}
	if err := s.vector.Persist(source); err != nil {
		return nil, fmt.Errorf("persisting vector snapshot for %s: %w", source, err)
	}

	// Mark threads only after the indexes and snapshot are durable so an
	// interrupted run re-indexes instead of silently dropping documents.
	for _, doc := range pending {
		entry := &models.IndexEntry{
			Key:       models.IndexEntryKey(doc.Source, doc.ThreadID),
			Source:    doc.Source,
			ThreadID:  doc.ThreadID,
			DocID:     doc.ID,
			IndexedAt: time.Now(),
		}
		if err := s.storage.IndexTrackingStorage().MarkIndexed(entry); err != nil {
			return nil, fmt.Errorf("marking %s indexed: %w", entry.Key, err)
		}
	}

	result.Indexed = len(pending)
	s.logger.Info().
		Str("source", source).
		Int("indexed", result.Indexed).
		Int("skipped", result.Skipped).
		Msg("Source indexing completed")
	return result, nil
}

// IndexAll runs IndexSource for every registered platform.
func (s *Service) IndexAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(models.PlatformIDs()))
	for _, source := range models.PlatformIDs() {
		result, err := s.IndexSource(ctx, source)
		if err != nil {
			return results, fmt.Errorf("indexing %s: %w", source, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Stats reports corpus and index counts across all registered platforms.
func (s *Service) Stats() (*models.DocumentStats, error) {
	docs := s.storage.DocumentStorage()

	total, err := docs.CountDocuments()
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}

	stats := &models.DocumentStats{
		TotalDocuments:    total,
		DocumentsBySource: make(map[string]int),
		LastUpdated:       time.Now().UTC(),
	}
	for _, source := range models.PlatformIDs() {
		count, err := docs.CountDocumentsBySource(source)
		if err != nil {
			return nil, fmt.Errorf("counting documents for %s: %w", source, err)
		}
		stats.DocumentsBySource[source] = count

		indexed, err := s.storage.IndexTrackingStorage().CountIndexed(source)
		if err != nil {
			return nil, fmt.Errorf("counting indexed threads for %s: %w", source, err)
		}
		stats.IndexedDocuments += indexed
	}
	return stats, nil
}

// rebuildLexical rebuilds the BM25 snapshot over the whole stored corpus.
// Caller holds s.mu.
func (s *Service) rebuildLexical() error {
	docs, err := s.storage.DocumentStorage().ListDocuments(&interfaces.ListOptions{})
	if err != nil {
		return err
	}
	s.lexical.Build(docs)
	return nil
}
