package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/memory"
	"github.com/ternarybob/suadeo/internal/services/retrieval"
)

// Response is one answered question.
type Response struct {
	Query     string                      `json:"query"`
	QueryType retrieval.QueryType         `json:"query_type"`
	Text      string                      `json:"text"`
	Items     []models.RecommendationItem `json:"items,omitempty"`
	Sources   []*models.Document          `json:"sources"`
}

// Retriever is the candidate retrieval surface the answer flow needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*models.Document, error)
}

// Aggregator is the recommendation aggregation surface the answer flow needs.
type Aggregator interface {
	Aggregate(ctx context.Context, query string, docs []*models.Document, topK int) ([]models.RecommendationItem, error)
}

// Service answers user questions over the indexed corpus. Recommendation
// questions route through item aggregation; everything else gets a grounded
// summary over the retrieved passages. Conversation memory feeds the prompt
// and records the exchange afterwards.
type Service struct {
	retriever  Retriever
	aggregator Aggregator
	llm        interfaces.CompletionService
	memory     *memory.Service
	config     common.RetrievalConfig
	logger     arbor.ILogger
}

// NewService creates the answer service.
func NewService(
	retriever Retriever,
	aggregator Aggregator,
	llm interfaces.CompletionService,
	memorySvc *memory.Service,
	config common.RetrievalConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		retriever:  retriever,
		aggregator: aggregator,
		llm:        llm,
		memory:     memorySvc,
		config:     config,
		logger:     logger,
	}
}

// Answer runs the full question flow for one query.
func (s *Service) Answer(ctx context.Context, sessionID, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	queryType := retrieval.ClassifyQuery(query)
	history := s.memory.Recent(sessionID)

	docs, err := s.retriever.Retrieve(ctx, query, s.config.TopK, s.config.RelevanceThreshold)
	if err != nil {
		return nil, fmt.Errorf("retrieving passages: %w", err)
	}

	response := &Response{
		Query:     query,
		QueryType: queryType,
		Sources:   docs,
	}

	switch queryType {
	case retrieval.QueryTypeRecommendation:
		items, err := s.aggregator.Aggregate(ctx, query, docs, 0)
		if err != nil {
			return nil, fmt.Errorf("aggregating recommendations: %w", err)
		}
		response.Items = items
		response.Text = renderRecommendations(query, items)
	default:
		text, err := s.summarize(ctx, query, docs, history)
		if err != nil {
			return nil, fmt.Errorf("summarizing answer: %w", err)
		}
		response.Text = text
	}

	if err := s.memory.Record(sessionID, query, response.Text); err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Failed to record conversation turn")
	}

	s.logger.Debug().
		Str("query_type", string(queryType)).
		Int("sources", len(docs)).
		Int("items", len(response.Items)).
		Msg("Question answered")

	return response, nil
}

// summarize asks the model for a grounded answer over the passages.
func (s *Service) summarize(ctx context.Context, query string, docs []*models.Document, history []*models.ConversationTurn) (string, error) {
	if len(docs) == 0 {
		return "No relevant posts were found for this question.", nil
	}

	var sb strings.Builder
	if historyBlock := memory.FormatHistory(history); historyBlock != "" {
		sb.WriteString(historyBlock)
		sb.WriteString("\n")
	}
	sb.WriteString("Answer the question using only the posts below. Cite the post numbers you used.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n\nPosts:\n", query))
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("[%d] (%s, engagement %d) %s\n", i+1, doc.Source, doc.Popularity, doc.Content))
	}

	return s.llm.Complete(ctx, sb.String())
}

// renderRecommendations formats aggregated items as a readable answer.
func renderRecommendations(query string, items []models.RecommendationItem) string {
	if len(items) == 0 {
		return "No recommendations could be extracted from the matching posts."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Top recommendations for %q:\n", query))
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s (score %.2f, %d mentions, avg rating %.1f/5)",
			i+1, item.Name, item.Score, item.Mentions, item.AverageRating))
		if item.Summary != "" {
			sb.WriteString(" - " + item.Summary)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
