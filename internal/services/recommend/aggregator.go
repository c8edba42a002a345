package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// Aggregator turns retrieved passages into a ranked list of recommendation
// items: LLM extraction, popularity reconciliation against the stored
// documents, sentiment-derived ratings, and weighted scoring.
type Aggregator struct {
	llm          interfaces.CompletionService
	config       common.RecommendConfig
	isProduction bool
	logger       arbor.ILogger
}

// NewAggregator creates a recommendation aggregator.
func NewAggregator(llm interfaces.CompletionService, config common.RecommendConfig, isProduction bool, logger arbor.ILogger) *Aggregator {
	return &Aggregator{
		llm:          llm,
		config:       config,
		isProduction: isProduction,
		logger:       logger,
	}
}

// Aggregate extracts items from the documents and ranks them. An unparseable
// model response surfaces as *MalformedExtractionError unless the debug
// fallback is enabled outside production, in which case a canned extraction
// keeps the pipeline testable without a live model.
func (a *Aggregator) Aggregate(ctx context.Context, query string, docs []*models.Document, topK int) ([]models.RecommendationItem, error) {
	if topK <= 0 {
		topK = a.config.TopK
	}
	if len(docs) == 0 {
		return []models.RecommendationItem{}, nil
	}

	prompt := BuildExtractionPrompt(query, docs)
	response, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	extracted, err := ParseExtraction(response)
	if err != nil {
		var malformed *MalformedExtractionError
		if errors.As(err, &malformed) && a.config.DebugFallback && !a.isProduction {
			a.logger.Warn().
				Err(err).
				Msg("Extraction response unparseable, substituting debug fallback items")
			extracted = debugFallbackItems(docs)
		} else {
			a.logger.Warn().
				Err(err).
				Str("query", query).
				Msg("Extraction response unparseable")
			return nil, err
		}
	}

	items := a.buildItems(extracted, docs)
	if len(items) == 0 {
		return []models.RecommendationItem{}, nil
	}

	scoreItems(items, a.config)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > topK {
		items = items[:topK]
	}

	a.logger.Debug().
		Str("query", query).
		Int("extracted", len(extracted)).
		Int("returned", len(items)).
		Msg("Recommendation aggregation completed")

	return items, nil
}

// buildItems validates and materializes extracted items, reconciling each
// post's popularity against the retrieved documents. The stored value always
// wins over whatever the model echoed back.
func (a *Aggregator) buildItems(extracted []ExtractedItem, docs []*models.Document) []models.RecommendationItem {
	items := make([]models.RecommendationItem, 0, len(extracted))
	for _, ext := range extracted {
		if strings.TrimSpace(ext.Name) == "" || len(ext.Posts) == 0 {
			a.logger.Warn().
				Str("name", ext.Name).
				Int("posts", len(ext.Posts)).
				Msg("Dropping extracted item missing name or posts")
			continue
		}

		item := models.RecommendationItem{
			Name:    strings.TrimSpace(ext.Name),
			Summary: strings.TrimSpace(ext.Summary),
			Posts:   make([]models.Post, 0, len(ext.Posts)),
		}
		var ratingSum float64
		for _, post := range ext.Posts {
			popularity := a.reconcilePopularity(item.Name, post, docs)
			rating := RatingForSentiment(post.Sentiment)
			item.Posts = append(item.Posts, models.Post{
				Content:    post.Content,
				Popularity: popularity,
				Sentiment:  post.Sentiment,
				Rating:     rating,
			})
			item.AggregatePopularity += popularity
			ratingSum += rating
			switch FoldSentiment(post.Sentiment) {
			case "positive":
				item.Sentiments.Positive++
			case "negative":
				item.Sentiments.Negative++
			default:
				item.Sentiments.Neutral++
			}
		}
		item.Mentions = len(item.Posts)
		item.AverageRating = ratingSum / float64(item.Mentions)
		items = append(items, item)
	}
	return items
}

// reconcilePopularity resolves a post's popularity from the document it was
// excerpted from. A post that matches no retrieved document contributes
// zero rather than trusting a value the model may have invented.
func (a *Aggregator) reconcilePopularity(itemName string, post ExtractedPost, docs []*models.Document) int64 {
	content := strings.TrimSpace(post.Content)
	if content != "" {
		for _, doc := range docs {
			if doc.Content == content || strings.Contains(doc.Content, content) {
				return doc.Popularity
			}
		}
	}
	a.logger.Warn().
		Str("item", itemName).
		Msg("Extracted post matches no retrieved document, counting zero popularity")
	return 0
}

// scoreItems assigns each item a weighted score over its normalized rating,
// aggregate popularity, and mention count. Maxima are clamped to one so a
// corpus where every item has zero popularity or a single mention does not
// divide by zero.
func scoreItems(items []models.RecommendationItem, config common.RecommendConfig) {
	var maxPopularity int64 = 1
	maxMentions := 1
	for _, item := range items {
		if item.AggregatePopularity > maxPopularity {
			maxPopularity = item.AggregatePopularity
		}
		if item.Mentions > maxMentions {
			maxMentions = item.Mentions
		}
	}

	for i := range items {
		items[i].Score = config.RatingWeight*(items[i].AverageRating/5.0) +
			config.PopularityWeight*(float64(items[i].AggregatePopularity)/float64(maxPopularity)) +
			config.MentionsWeight*(float64(items[i].Mentions)/float64(maxMentions))
	}
}

// debugFallbackItems fabricates one positive item per retrieved document so
// the end-to-end pipeline stays exercisable when a model keeps returning
// prose instead of JSON.
func debugFallbackItems(docs []*models.Document) []ExtractedItem {
	items := make([]ExtractedItem, 0, len(docs))
	for i, doc := range docs {
		items = append(items, ExtractedItem{
			Name: fmt.Sprintf("Debug Item %d", i+1),
			Posts: []ExtractedPost{{
				Content:    doc.Content,
				Popularity: doc.Popularity,
				Sentiment:  "positive",
			}},
			Summary: "Debug fallback item, extraction response was unparseable.",
		})
	}
	return items
}
