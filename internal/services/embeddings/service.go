package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/suadeo/internal/common"
)

// embedBatchSize caps how many texts go into one EmbedContent request.
const embedBatchSize = 100

// Service generates dense vectors through the Gemini embedding API. Batch
// requests are chunked and rate-limited so bulk indexing runs stay inside
// provider quotas.
type Service struct {
	config  *common.GeminiConfig
	client  *genai.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewService creates the embedding service.
func NewService(config *common.GeminiConfig, rateLimit *rate.Limiter, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for embeddings (set GEMINI_API_KEY or gemini.api_key)")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if rateLimit == nil {
		rateLimit = rate.NewLimiter(rate.Inf, 1)
	}

	logger.Debug().
		Str("model", config.EmbeddingModel).
		Int("dimension", config.EmbeddingDimension).
		Msg("Embedding service initialized")

	return &Service{
		config:  config,
		client:  client,
		limiter: rateLimit,
		logger:  logger,
	}, nil
}

// Dimension returns the configured output dimensionality.
func (s *Service) Dimension() int {
	return s.config.EmbeddingDimension
}

// EmbedBatch generates one vector per input text, preserving input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := s.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch [%d:%d] failed: %w", start, end, err)
		}
		vectors = append(vectors, chunk...)
	}

	s.logger.Debug().
		Int("texts", len(texts)).
		Int("vectors", len(vectors)).
		Msg("Batch embedding completed")

	return vectors, nil
}

// GenerateQueryEmbedding embeds a single query string.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.embedChunk(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	return vectors[0], nil
}

func (s *Service) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit wait: %w", err)
	}

	outputDim := int32(s.config.EmbeddingDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx, s.config.EmbeddingModel, contents, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if len(embedding.Values) != s.config.EmbeddingDimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
				s.config.EmbeddingDimension, len(embedding.Values))
		}
		vectors[i] = embedding.Values
	}
	return vectors, nil
}
