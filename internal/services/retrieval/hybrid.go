package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/lexical"
	"github.com/ternarybob/suadeo/internal/services/vector"
)

// LexicalSearcher provides BM25 candidates.
type LexicalSearcher interface {
	TopK(query string, k int) ([]lexical.Hit, error)
}

// VectorSearcher provides dense similarity candidates.
type VectorSearcher interface {
	Search(query []float32, k int) ([]vector.Result, error)
}

// QueryEmbedder embeds a query for the vector search.
type QueryEmbedder interface {
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)
}

// Retriever fuses lexical, vector, and popularity signals into one ranked
// candidate list. Within a call the result is deterministic for a given index
// snapshot, query, and weights: normalization is computed over the whole
// candidate pool and ties keep pool insertion order.
type Retriever struct {
	lexical  LexicalSearcher
	vector   VectorSearcher
	embedder QueryEmbedder
	config   common.RetrievalConfig
	logger   arbor.ILogger
}

// NewRetriever creates a hybrid retriever.
func NewRetriever(
	lex LexicalSearcher,
	vec VectorSearcher,
	embedder QueryEmbedder,
	config common.RetrievalConfig,
	logger arbor.ILogger,
) *Retriever {
	return &Retriever{
		lexical:  lex,
		vector:   vec,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// candidate accumulates the raw per-signal scores for one pooled document.
type candidate struct {
	doc      *models.Document
	lexScore float64
	vecScore float64
	popScore float64
}

// Retrieve runs the fusion pipeline: oversampled candidate fetch from both
// indexes, union by document identity, per-signal normalization, weighted
// sum, hard threshold cutoff, stable descending sort, topK truncation. The
// combined score is attached to each returned document as RelevanceScore.
//
// A failing index degrades to zero candidates from that side; the error is
// surfaced only when neither index can produce candidates.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*models.Document, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}
	oversample := topK * r.config.CandidateMultiplier

	// The two fetches are independent reads; run them concurrently.
	var (
		wg      sync.WaitGroup
		lexHits []lexical.Hit
		lexErr  error
		vecHits []vector.Result
		vecErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lexHits, lexErr = r.lexical.TopK(query, oversample)
	}()
	go func() {
		defer wg.Done()
		embedding, err := r.embedder.GenerateQueryEmbedding(ctx, query)
		if err != nil {
			vecErr = err
			return
		}
		vecHits, vecErr = r.vector.Search(embedding, oversample)
	}()
	wg.Wait()

	if lexErr != nil {
		r.logger.Warn().Err(lexErr).Msg("Lexical candidates unavailable, degrading to vector-only retrieval")
		lexHits = nil
	}
	if vecErr != nil {
		r.logger.Warn().Err(vecErr).Msg("Vector candidates unavailable, degrading to lexical-only retrieval")
		vecHits = nil
	}
	if lexErr != nil && vecErr != nil {
		return nil, interfaces.ErrIndexUnavailable
	}

	pool := r.buildPool(lexHits, vecHits)
	if len(pool) == 0 {
		return []*models.Document{}, nil
	}

	// Normalize each signal independently across the pool. The cosine
	// similarity is bounded in [-1,1] and remaps linearly; the unbounded
	// BM25 and popularity signals use min-max scaling.
	lexNorm := make([]float64, len(pool))
	vecNorm := make([]float64, len(pool))
	popNorm := make([]float64, len(pool))
	lexRaw := make([]float64, len(pool))
	popRaw := make([]float64, len(pool))
	for i, cand := range pool {
		lexRaw[i] = cand.lexScore
		popRaw[i] = cand.popScore
		vecNorm[i] = remapBounded(cand.vecScore)
	}
	copy(lexNorm, minMaxNormalize(lexRaw))
	copy(popNorm, minMaxNormalize(popRaw))

	type scored struct {
		cand  *candidate
		score float64
	}
	kept := make([]scored, 0, len(pool))
	for i, cand := range pool {
		combined := r.config.LexicalWeight*lexNorm[i] +
			r.config.VectorWeight*vecNorm[i] +
			r.config.PopularityWeight*popNorm[i]
		// Hard cutoff, not a soft penalty.
		if combined < threshold {
			continue
		}
		kept = append(kept, scored{cand: cand, score: combined})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}

	results := make([]*models.Document, len(kept))
	for i, s := range kept {
		// Shallow copy so concurrent queries never race on the ephemeral
		// relevance score of a shared index document.
		doc := *s.cand.doc
		doc.RelevanceScore = s.score
		results[i] = &doc
	}

	r.logger.Debug().
		Str("query", query).
		Int("lexical_candidates", len(lexHits)).
		Int("vector_candidates", len(vecHits)).
		Int("pool", len(pool)).
		Int("returned", len(results)).
		Msg("Hybrid retrieval completed")

	return results, nil
}

// buildPool unions both candidate sets keyed by document identity. Documents
// present on only one side keep a zero score for the missing signal.
func (r *Retriever) buildPool(lexHits []lexical.Hit, vecHits []vector.Result) []*candidate {
	pool := make([]*candidate, 0, len(lexHits)+len(vecHits))
	byID := make(map[string]*candidate)

	lookup := func(doc *models.Document) *candidate {
		id := documentKey(doc)
		if cand, ok := byID[id]; ok {
			return cand
		}
		cand := &candidate{doc: doc}
		cand.popScore = r.popularityScore(doc)
		byID[id] = cand
		pool = append(pool, cand)
		return cand
	}

	for _, hit := range lexHits {
		lookup(hit.Document).lexScore = hit.Score
	}
	for _, res := range vecHits {
		lookup(res.Document).vecScore = res.Score
	}
	return pool
}

// documentKey prefers the explicit document id and falls back to a generic
// metadata id for documents ingested before normalization.
func documentKey(doc *models.Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	if v, ok := doc.Metadata["id"].(string); ok && v != "" {
		return v
	}
	return doc.Source + ":" + doc.ThreadID
}

// popularityScore resolves the popularity signal for a document: the
// canonical field when set, otherwise the maximum over recognized
// platform-native metadata fields. A document carrying no popularity signal
// at all is a data-quality problem, logged and scored zero.
func (r *Retriever) popularityScore(doc *models.Document) float64 {
	best := float64(doc.Popularity)
	found := doc.Popularity != 0

	for _, field := range models.PopularityFieldNames() {
		v, ok := doc.Metadata[field]
		if !ok {
			continue
		}
		found = true
		switch n := v.(type) {
		case int:
			if f := float64(n); f > best {
				best = f
			}
		case int64:
			if f := float64(n); f > best {
				best = f
			}
		case float64:
			if n > best {
				best = n
			}
		}
	}

	if !found {
		r.logger.Warn().
			Str("doc_id", doc.ID).
			Str("source", doc.Source).
			Msg("Document has no recognized popularity field, scoring popularity as zero")
		return 0
	}
	return best
}
