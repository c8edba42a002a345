package interfaces

import "context"

// CompletionService is the boundary to the external LLM. The service is
// treated as unreliable and possibly slow: implementations bound concurrency,
// rate-limit, time out, and retry; consumers validate its output defensively
// and never trust it for numeric fields the system already holds.
type CompletionService interface {
	// Complete sends a prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)

	// HealthCheck verifies the provider is reachable and configured.
	HealthCheck(ctx context.Context) error

	Close() error
}

// EmbeddingService generates dense vectors for indexing and querying.
// Batch chunking is handled inside the implementation; repeated embedding of
// the same text is expected to be deterministic enough for idempotent
// indexing.
type EmbeddingService interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)
	Dimension() int
}
