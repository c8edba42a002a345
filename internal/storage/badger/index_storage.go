package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// IndexTrackingStorage implements the IndexTrackingStorage interface for
// Badger. Entries are keyed by source:thread_id, so marking the same thread
// twice upserts one entry.
type IndexTrackingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewIndexTrackingStorage creates a new IndexTrackingStorage instance
func NewIndexTrackingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.IndexTrackingStorage {
	return &IndexTrackingStorage{
		db:     db,
		logger: logger,
	}
}

func (s *IndexTrackingStorage) IsIndexed(source, threadID string) (bool, error) {
	var entry models.IndexEntry
	err := s.db.Store().Get(models.IndexEntryKey(source, threadID), &entry)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check index entry: %w", err)
	}
	return true, nil
}

func (s *IndexTrackingStorage) MarkIndexed(entry *models.IndexEntry) error {
	if entry.Source == "" || entry.ThreadID == "" {
		return fmt.Errorf("index entry source and thread_id are required")
	}
	entry.Key = models.IndexEntryKey(entry.Source, entry.ThreadID)
	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now()
	}

	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to save index entry: %w", err)
	}
	return nil
}

func (s *IndexTrackingStorage) ListIndexed(source string) ([]*models.IndexEntry, error) {
	var entries []models.IndexEntry
	if err := s.db.Store().Find(&entries, badgerhold.Where("Source").Eq(source)); err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}

	result := make([]*models.IndexEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

func (s *IndexTrackingStorage) CountIndexed(source string) (int, error) {
	count, err := s.db.Store().Count(&models.IndexEntry{}, badgerhold.Where("Source").Eq(source))
	if err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return int(count), nil
}
