package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/lexical"
	"github.com/ternarybob/suadeo/internal/services/textproc"
	"github.com/ternarybob/suadeo/internal/services/vector"
	storagebadger "github.com/ternarybob/suadeo/internal/storage/badger"
)

type fakeEmbedder struct {
	dimension int
	calls     int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dimension)
		for j, r := range text {
			vec[j%f.dimension] += float32(r % 7)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (f *fakeEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func newTestService(t *testing.T) (*Service, interfaces.StorageManager, *fakeEmbedder) {
	t.Helper()
	logger := arbor.NewLogger()
	storage, err := storagebadger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	embedder := &fakeEmbedder{dimension: 8}
	lexIdx := lexical.NewIndex(textproc.NewPreprocessor(logger), logger)
	vecStore := vector.NewStore(t.TempDir(), logger)
	config := common.IndexingConfig{BatchLimit: 1000}

	return NewService(storage, embedder, lexIdx, vecStore, config, logger), storage, embedder
}

func saveDoc(t *testing.T, storage interfaces.StorageManager, source, threadID, content string) {
	t.Helper()
	err := storage.DocumentStorage().SaveDocument(&models.Document{
		Source:   source,
		ThreadID: threadID,
		Content:  content,
	})
	require.NoError(t, err)
}

func TestIndexSourceMarksThreads(t *testing.T) {
	svc, storage, _ := newTestService(t)
	require.NoError(t, svc.Bootstrap(context.Background()))

	saveDoc(t, storage, "reddit", "t1", "mechanical keyboards are great")
	saveDoc(t, storage, "reddit", "t2", "try a tenkeyless board")

	result, err := svc.IndexSource(context.Background(), "reddit")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 0, result.Skipped)

	count, err := storage.IndexTrackingStorage().CountIndexed("reddit")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	indexed, err := storage.IndexTrackingStorage().IsIndexed("reddit", "t1")
	require.NoError(t, err)
	assert.True(t, indexed)
}

// Re-running a source embeds nothing new: already indexed threads are
// skipped and the tracking store keeps one entry per thread.
func TestIndexSourceIdempotent(t *testing.T) {
	svc, storage, embedder := newTestService(t)
	require.NoError(t, svc.Bootstrap(context.Background()))

	saveDoc(t, storage, "reddit", "t1", "mechanical keyboards are great")

	first, err := svc.IndexSource(context.Background(), "reddit")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)
	callsAfterFirst := embedder.calls

	second, err := svc.IndexSource(context.Background(), "reddit")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, callsAfterFirst, embedder.calls)

	count, err := storage.IndexTrackingStorage().CountIndexed("reddit")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Re-ingesting the same thread upserts one document, so a second indexing
// run still sees exactly one entry for it.
func TestIndexSourceUpsertedThreadIndexedOnce(t *testing.T) {
	svc, storage, _ := newTestService(t)
	require.NoError(t, svc.Bootstrap(context.Background()))

	saveDoc(t, storage, "reddit", "t1", "first crawl of the thread")
	_, err := svc.IndexSource(context.Background(), "reddit")
	require.NoError(t, err)

	saveDoc(t, storage, "reddit", "t1", "second crawl, thread was edited")
	result, err := svc.IndexSource(context.Background(), "reddit")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)

	count, err := storage.IndexTrackingStorage().CountIndexed("reddit")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexSourceUnknownPlatform(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IndexSource(context.Background(), "myspace")

	assert.Error(t, err)
}

func TestIndexSourceUpdatesSearchIndexes(t *testing.T) {
	svc, storage, embedder := newTestService(t)
	require.NoError(t, svc.Bootstrap(context.Background()))

	saveDoc(t, storage, "stackoverflow", "q1", "how to tune garbage collection in production")
	_, err := svc.IndexSource(context.Background(), "stackoverflow")
	require.NoError(t, err)

	hits, err := svc.lexical.TopK("garbage collection", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "q1", hits[0].Document.ThreadID)

	query, err := embedder.GenerateQueryEmbedding(context.Background(), "how to tune garbage collection in production")
	require.NoError(t, err)
	results, err := svc.vector.Search(query, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "q1", results[0].Document.ThreadID)
}

// A fresh process bootstraps from the persisted snapshot without
// re-embedding anything.
func TestBootstrapLoadsPersistedSnapshot(t *testing.T) {
	logger := arbor.NewLogger()
	dbPath := t.TempDir()
	indexDir := t.TempDir()

	storage, err := storagebadger.NewManager(logger, &common.BadgerConfig{Path: dbPath})
	require.NoError(t, err)
	embedder := &fakeEmbedder{dimension: 8}
	config := common.IndexingConfig{BatchLimit: 1000}

	svc := NewService(storage, embedder, lexical.NewIndex(textproc.NewPreprocessor(logger), logger), vector.NewStore(indexDir, logger), config, logger)
	require.NoError(t, svc.Bootstrap(context.Background()))
	saveDoc(t, storage, "rednote", "n1", "this cafe is worth the trip")
	_, err = svc.IndexSource(context.Background(), "rednote")
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	storage2, err := storagebadger.NewManager(logger, &common.BadgerConfig{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { storage2.Close() })
	embedder2 := &fakeEmbedder{dimension: 8}

	svc2 := NewService(storage2, embedder2, lexical.NewIndex(textproc.NewPreprocessor(logger), logger), vector.NewStore(indexDir, logger), config, logger)
	require.NoError(t, svc2.Bootstrap(context.Background()))

	assert.Equal(t, 1, svc2.vector.Size())
	assert.Equal(t, 1, svc2.lexical.Size())
	assert.Equal(t, 0, embedder2.calls)
}

// Missing snapshots are tolerated: bootstrap starts cold instead of failing.
func TestStatsCountsPerSource(t *testing.T) {
	svc, storage, _ := newTestService(t)
	require.NoError(t, svc.Bootstrap(context.Background()))

	saveDoc(t, storage, "reddit", "t1", "mechanical keyboards are great")
	saveDoc(t, storage, "reddit", "t2", "try a tenkeyless board")
	saveDoc(t, storage, "stackoverflow", "q1", "how to defer a file close")

	_, err := svc.IndexSource(context.Background(), "reddit")
	require.NoError(t, err)

	stats, err := svc.Stats()

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.DocumentsBySource["reddit"])
	assert.Equal(t, 1, stats.DocumentsBySource["stackoverflow"])
	assert.Equal(t, 0, stats.DocumentsBySource["rednote"])
	assert.Equal(t, 2, stats.IndexedDocuments)
	assert.False(t, stats.LastUpdated.IsZero())
}

func TestBootstrapColdStart(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, svc.vector.Size())
}
