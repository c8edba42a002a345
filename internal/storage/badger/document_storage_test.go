package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestSaveDocumentAssignsID(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	doc := &models.Document{Source: "reddit", ThreadID: "t1", Content: "hello"}
	require.NoError(t, storage.SaveDocument(doc))

	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
}

// Metadata decoded from JSON carries []interface{} and
// map[string]interface{} values; both must survive the gob round trip.
func TestSaveDocumentJSONShapedMetadata(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	doc := &models.Document{
		Source:   "stackoverflow",
		ThreadID: "q1",
		Content:  "how to defer a file close",
		Metadata: map[string]interface{}{
			"vote_score": float64(42),
			"tags":       []interface{}{"go", "file-io"},
			"author":     map[string]interface{}{"name": "gopher"},
		},
	}
	require.NoError(t, storage.SaveDocument(doc))

	loaded, err := storage.GetDocumentByThread("stackoverflow", "q1")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"go", "file-io"}, loaded.Metadata["tags"])
	assert.Equal(t, float64(42), loaded.Metadata["vote_score"])
}

// Saving the same (source, thread) twice updates in place.
func TestSaveDocumentUpsertsByThread(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	first := &models.Document{Source: "reddit", ThreadID: "t1", Content: "original", Popularity: 10}
	require.NoError(t, storage.SaveDocument(first))

	second := &models.Document{Source: "reddit", ThreadID: "t1", Content: "edited", Popularity: 25}
	require.NoError(t, storage.SaveDocument(second))

	assert.Equal(t, first.ID, second.ID)

	count, err := storage.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := storage.GetDocumentByThread("reddit", "t1")
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content)
	assert.Equal(t, int64(25), stored.Popularity)
}

// The same thread id on different platforms stays distinct.
func TestSaveDocumentThreadKeyIncludesSource(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	require.NoError(t, storage.SaveDocument(&models.Document{Source: "reddit", ThreadID: "t1", Content: "a"}))
	require.NoError(t, storage.SaveDocument(&models.Document{Source: "rednote", ThreadID: "t1", Content: "b"}))

	count, err := storage.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListDocumentsBySource(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	require.NoError(t, storage.SaveDocument(&models.Document{Source: "reddit", ThreadID: "t1", Content: "a"}))
	require.NoError(t, storage.SaveDocument(&models.Document{Source: "reddit", ThreadID: "t2", Content: "b"}))
	require.NoError(t, storage.SaveDocument(&models.Document{Source: "stackoverflow", ThreadID: "q1", Content: "c"}))

	docs, err := storage.ListDocuments(&interfaces.ListOptions{Source: "reddit"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := storage.ListDocuments(&interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetDocumentByThreadNotFound(t *testing.T) {
	storage := newTestManager(t).DocumentStorage()

	_, err := storage.GetDocumentByThread("reddit", "missing")

	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestIndexTrackingIdempotentMark(t *testing.T) {
	tracking := newTestManager(t).IndexTrackingStorage()

	entry := &models.IndexEntry{
		Key:      models.IndexEntryKey("reddit", "t1"),
		Source:   "reddit",
		ThreadID: "t1",
		DocID:    "doc_1",
	}
	require.NoError(t, tracking.MarkIndexed(entry))
	require.NoError(t, tracking.MarkIndexed(entry))

	count, err := tracking.CountIndexed("reddit")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	indexed, err := tracking.IsIndexed("reddit", "t1")
	require.NoError(t, err)
	assert.True(t, indexed)

	indexed, err = tracking.IsIndexed("reddit", "t2")
	require.NoError(t, err)
	assert.False(t, indexed)
}

func TestMemoryStorageOrdering(t *testing.T) {
	memory := newTestManager(t).MemoryStorage()

	require.NoError(t, memory.Append("sess_1", "q1", "a1"))
	require.NoError(t, memory.Append("sess_1", "q2", "a2"))
	require.NoError(t, memory.Append("sess_1", "q3", "a3"))
	require.NoError(t, memory.Append("sess_2", "other", "session"))

	turns, err := memory.GetRecent("sess_1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].UserInput)
	assert.Equal(t, "q3", turns[1].UserInput)
}

func TestKeyValueStorageCaseInsensitive(t *testing.T) {
	kv := newTestManager(t).KeyValueStorage()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "Gemini_Api_Key", "secret"))

	value, err := kv.Get(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret", value)

	_, err = kv.Get(ctx, "missing_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, kv.Delete(ctx, "GEMINI_API_KEY"))
	_, err = kv.Get(ctx, "gemini_api_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}
