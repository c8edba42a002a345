package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/services/answer"
	"github.com/ternarybob/suadeo/internal/services/embeddings"
	"github.com/ternarybob/suadeo/internal/services/indexer"
	"github.com/ternarybob/suadeo/internal/services/ingest"
	"github.com/ternarybob/suadeo/internal/services/lexical"
	"github.com/ternarybob/suadeo/internal/services/llm"
	"github.com/ternarybob/suadeo/internal/services/memory"
	"github.com/ternarybob/suadeo/internal/services/recommend"
	"github.com/ternarybob/suadeo/internal/services/retrieval"
	"github.com/ternarybob/suadeo/internal/services/textproc"
	"github.com/ternarybob/suadeo/internal/services/vector"
	storagebadger "github.com/ternarybob/suadeo/internal/storage/badger"
)

// App owns every service and wires them together explicitly. There is no
// ambient global state: construction order is storage, indexes, providers,
// then the services that compose them.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage      interfaces.StorageManager
	LexicalIndex *lexical.Index
	VectorStore  *vector.Store
	Embedder     interfaces.EmbeddingService
	Completion   interfaces.CompletionService

	Loader     *ingest.Loader
	Retriever  *retrieval.Retriever
	Aggregator *recommend.Aggregator
	Memory     *memory.Service
	Answer     *answer.Service
	Indexer    *indexer.Service
	Scheduler  *indexer.Scheduler
}

// New constructs the application and bootstraps the search indexes from
// persisted state. Provider construction is fail-fast: missing API keys
// surface here, not on the first query.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := storagebadger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	// API keys can live in the KV store instead of the config file. The
	// environment still wins inside ResolveAPIKey.
	ctx := context.Background()
	if key, err := common.ResolveAPIKey(ctx, storage.KeyValueStorage(), "gemini_api_key", config.Gemini.APIKey); err == nil {
		config.Gemini.APIKey = key
	}
	if key, err := common.ResolveAPIKey(ctx, storage.KeyValueStorage(), "anthropic_api_key", config.Claude.APIKey); err == nil {
		config.Claude.APIKey = key
	}

	preprocessor := textproc.NewPreprocessor(logger)
	lexicalIndex := lexical.NewIndex(preprocessor, logger)
	vectorStore := vector.NewStore(config.Storage.Indexes, logger)

	embedLimiter := rate.NewLimiter(rate.Inf, 1)
	if config.LLM.RateLimit > 0 {
		embedLimiter = rate.NewLimiter(rate.Every(config.LLM.RateLimit), 1)
	}
	embedder, err := embeddings.NewService(&config.Gemini, embedLimiter, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("initializing embedding service: %w", err)
	}

	completion, err := llm.NewService(config, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("initializing completion service: %w", err)
	}

	indexService := indexer.NewService(storage, embedder, lexicalIndex, vectorStore, config.Indexing, logger)
	if err := indexService.Bootstrap(ctx); err != nil {
		completion.Close()
		storage.Close()
		return nil, fmt.Errorf("bootstrapping indexes: %w", err)
	}

	retriever := retrieval.NewRetriever(lexicalIndex, vectorStore, embedder, config.Retrieval, logger)
	aggregator := recommend.NewAggregator(completion, config.Recommend, config.IsProduction(), logger)
	memoryService := memory.NewService(storage.MemoryStorage(), config.Memory, logger)
	answerService := answer.NewService(retriever, aggregator, completion, memoryService, config.Retrieval, logger)

	app := &App{
		Config:       config,
		Logger:       logger,
		Storage:      storage,
		LexicalIndex: lexicalIndex,
		VectorStore:  vectorStore,
		Embedder:     embedder,
		Completion:   completion,
		Loader:       ingest.NewLoader(storage.DocumentStorage(), logger),
		Retriever:    retriever,
		Aggregator:   aggregator,
		Memory:       memoryService,
		Answer:       answerService,
		Indexer:      indexService,
		Scheduler:    indexer.NewScheduler(indexService, config.Indexing, logger),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("badger_path", config.Storage.Badger.Path).
		Str("index_dir", config.Storage.Indexes).
		Msg("Application initialized")

	return app, nil
}

// Close releases providers and storage in reverse construction order.
func (a *App) Close() error {
	if a.Completion != nil {
		if err := a.Completion.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close completion service")
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("closing storage: %w", err)
		}
	}
	return nil
}
