package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/memory"
	"github.com/ternarybob/suadeo/internal/services/retrieval"
	storagebadger "github.com/ternarybob/suadeo/internal/storage/badger"
)

type stubRetriever struct {
	docs []*models.Document
	err  error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*models.Document, error) {
	return s.docs, s.err
}

type stubAggregator struct {
	items []models.RecommendationItem
	err   error
	calls int
}

func (s *stubAggregator) Aggregate(ctx context.Context, query string, docs []*models.Document, topK int) ([]models.RecommendationItem, error) {
	s.calls++
	return s.items, s.err
}

type stubCompletion struct {
	response string
	prompts  []string
}

func (s *stubCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, nil
}

func (s *stubCompletion) HealthCheck(ctx context.Context) error { return nil }

func (s *stubCompletion) Close() error { return nil }

func newTestService(t *testing.T, retriever Retriever, aggregator Aggregator, llm *stubCompletion) *Service {
	t.Helper()
	logger := arbor.NewLogger()
	storage, err := storagebadger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	memorySvc := memory.NewService(storage.MemoryStorage(), common.MemoryConfig{RecentLimit: 5}, logger)
	config := common.NewDefaultConfig().Retrieval
	return NewService(retriever, aggregator, llm, memorySvc, config, logger)
}

func TestAnswerRoutesRecommendationQueries(t *testing.T) {
	docs := []*models.Document{{ID: "d1", Source: "reddit", ThreadID: "t1", Content: "get Widget X"}}
	aggregator := &stubAggregator{items: []models.RecommendationItem{
		{Name: "Widget X", Score: 0.9, Mentions: 3, AverageRating: 4.5, Summary: "Widely praised."},
	}}
	llm := &stubCompletion{response: "should not be used"}
	svc := newTestService(t, &stubRetriever{docs: docs}, aggregator, llm)

	response, err := svc.Answer(context.Background(), "", "recommend a widget")

	require.NoError(t, err)
	assert.Equal(t, retrieval.QueryTypeRecommendation, response.QueryType)
	assert.Equal(t, 1, aggregator.calls)
	require.Len(t, response.Items, 1)
	assert.Contains(t, response.Text, "Widget X")
	assert.Empty(t, llm.prompts)
}

func TestAnswerRoutesLookupQueries(t *testing.T) {
	docs := []*models.Document{{ID: "d1", Source: "stackoverflow", ThreadID: "q1", Content: "use context.WithTimeout", Popularity: 12}}
	aggregator := &stubAggregator{}
	llm := &stubCompletion{response: "Use context.WithTimeout as shown in [1]."}
	svc := newTestService(t, &stubRetriever{docs: docs}, aggregator, llm)

	response, err := svc.Answer(context.Background(), "", "how do I set a timeout")

	require.NoError(t, err)
	assert.Equal(t, retrieval.QueryTypeLookup, response.QueryType)
	assert.Equal(t, 0, aggregator.calls)
	assert.Equal(t, "Use context.WithTimeout as shown in [1].", response.Text)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "use context.WithTimeout")
}

func TestAnswerEmptyRetrievalSkipsModel(t *testing.T) {
	llm := &stubCompletion{}
	svc := newTestService(t, &stubRetriever{}, &stubAggregator{}, llm)

	response, err := svc.Answer(context.Background(), "", "what is the airspeed of an unladen swallow")

	require.NoError(t, err)
	assert.Contains(t, response.Text, "No relevant posts")
	assert.Empty(t, llm.prompts)
}

func TestAnswerRecordsAndReusesSessionHistory(t *testing.T) {
	docs := []*models.Document{{ID: "d1", Source: "reddit", ThreadID: "t1", Content: "a post"}}
	llm := &stubCompletion{response: "an answer"}
	svc := newTestService(t, &stubRetriever{docs: docs}, &stubAggregator{}, llm)

	_, err := svc.Answer(context.Background(), "sess_1", "first question")
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), "sess_1", "second question")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 2)
	assert.False(t, strings.Contains(llm.prompts[0], "Previous conversation"))
	assert.Contains(t, llm.prompts[1], "Previous conversation")
	assert.Contains(t, llm.prompts[1], "first question")
}

func TestAnswerRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(t, &stubRetriever{}, &stubAggregator{}, &stubCompletion{})

	_, err := svc.Answer(context.Background(), "", "   ")

	assert.Error(t, err)
}
