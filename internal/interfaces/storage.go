package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/suadeo/internal/models"
)

// ListOptions configures document listing.
type ListOptions struct {
	Source string
	Limit  int
	Offset int
}

// DocumentStorage persists normalized documents. SaveDocument upserts by
// (Source, ThreadID) so re-ingesting a thread never duplicates it.
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error
	SaveDocuments(docs []*models.Document) error
	GetDocument(id string) (*models.Document, error)
	GetDocumentByThread(source, threadID string) (*models.Document, error)
	ListDocuments(opts *ListOptions) ([]*models.Document, error)
	DeleteDocument(id string) error
	CountDocuments() (int, error)
	CountDocumentsBySource(source string) (int, error)
}

// IndexTrackingStorage records which threads have been embedded and written
// to the indexes.
type IndexTrackingStorage interface {
	IsIndexed(source, threadID string) (bool, error)
	MarkIndexed(entry *models.IndexEntry) error
	ListIndexed(source string) ([]*models.IndexEntry, error)
	CountIndexed(source string) (int, error)
}

// MemoryStorage persists conversation turns keyed by session id.
// Last-write-wins per session; no transactional requirement.
type MemoryStorage interface {
	GetRecent(sessionID string, limit int) ([]*models.ConversationTurn, error)
	Append(sessionID, userInput, aiReply string) error
}

// KeyValuePair is a stored key/value entry.
type KeyValuePair struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyValueStorage provides simple key/value persistence (API keys, settings).
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StorageManager aggregates the storage interfaces over one database.
type StorageManager interface {
	DocumentStorage() DocumentStorage
	IndexTrackingStorage() IndexTrackingStorage
	MemoryStorage() MemoryStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
