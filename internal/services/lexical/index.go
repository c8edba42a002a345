package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/services/textproc"
)

// BM25 parameters
const (
	k1 = 1.2  // Controls term frequency saturation
	b  = 0.75 // Controls how much effect document length has
)

// Hit is one scored document from the lexical index.
type Hit struct {
	Document *models.Document
	Score    float64
}

// Index is a BM25 term-overlap index over a document corpus. Build fits the
// term statistics for a snapshot of the corpus; queries score against that
// snapshot until the next Build. The snapshot swap is guarded by a
// read-write lock so concurrent queries never observe a partial rebuild.
type Index struct {
	preprocessor *textproc.Preprocessor
	logger       arbor.ILogger

	mu       sync.RWMutex
	built    bool
	docs     []*models.Document
	docTerms []map[string]int // term frequency per document
	docLens  []int
	avgLen   float64
	docFreq  map[string]int // documents containing each term
}

// NewIndex creates an empty BM25 index.
func NewIndex(preprocessor *textproc.Preprocessor, logger arbor.ILogger) *Index {
	return &Index{
		preprocessor: preprocessor,
		logger:       logger,
	}
}

// Build tokenizes the corpus and fits the term statistics, replacing any
// previous snapshot. An empty corpus produces a valid index that scores
// nothing.
func (idx *Index) Build(docs []*models.Document) {
	docTerms := make([]map[string]int, len(docs))
	docLens := make([]int, len(docs))
	docFreq := make(map[string]int)
	totalLen := 0

	for i, doc := range docs {
		tokens := idx.preprocessor.Preprocess(doc.Content)
		terms := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			terms[tok]++
		}
		for term := range terms {
			docFreq[term]++
		}
		docTerms[i] = terms
		docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	avgLen := 0.0
	if len(docs) > 0 {
		avgLen = float64(totalLen) / float64(len(docs))
	}

	snapshot := make([]*models.Document, len(docs))
	copy(snapshot, docs)

	idx.mu.Lock()
	idx.docs = snapshot
	idx.docTerms = docTerms
	idx.docLens = docLens
	idx.avgLen = avgLen
	idx.docFreq = docFreq
	idx.built = true
	idx.mu.Unlock()

	if idx.logger != nil {
		idx.logger.Debug().
			Int("documents", len(docs)).
			Int("terms", len(docFreq)).
			Msg("Lexical index built")
	}
}

// Size returns the number of documents in the current snapshot.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// ScoreAll computes BM25 scores for every document in the snapshot. Documents
// with no term overlap score zero and are omitted. Returns
// ErrIndexUnavailable when Build has never run.
func (idx *Index) ScoreAll(query string) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.built {
		return nil, interfaces.ErrIndexUnavailable
	}
	if len(idx.docs) == 0 {
		return []Hit{}, nil
	}

	queryTerms := idx.preprocessor.Preprocess(query)
	if len(queryTerms) == 0 {
		return []Hit{}, nil
	}

	totalDocs := float64(len(idx.docs))
	hits := make([]Hit, 0)

	for i, doc := range idx.docs {
		score := 0.0
		for _, term := range queryTerms {
			tf := float64(idx.docTerms[i][term])
			if tf == 0 {
				continue
			}
			df := float64(idx.docFreq[term])
			// IDF = log(1 + (N-df+0.5)/(df+0.5)), strictly positive so a
			// term present in every document still contributes.
			// TF = (tf*(k1+1)) / (tf + k1*(1-b+b*|d|/avgdl))
			idf := math.Log(1 + (totalDocs-df+0.5)/(df+0.5))
			norm := tf + k1*(1-b+b*(float64(idx.docLens[i])/idx.avgLen))
			score += idf * (tf * (k1 + 1)) / norm
		}
		if score > 0 {
			hits = append(hits, Hit{Document: doc, Score: score})
		}
	}
	return hits, nil
}

// TopK returns the k highest-scoring documents for the query, descending.
// Ties keep corpus order.
func (idx *Index) TopK(query string, k int) ([]Hit, error) {
	hits, err := idx.ScoreAll(query)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
