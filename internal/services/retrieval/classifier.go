package retrieval

import (
	"regexp"
	"strings"
)

// QueryType represents different types of user queries
type QueryType string

const (
	// QueryTypeRecommendation asks for ranked item suggestions and routes
	// through the recommendation aggregator.
	QueryTypeRecommendation QueryType = "recommendation"
	// QueryTypeLookup asks for information and routes straight to answer
	// summarization over the retrieved passages.
	QueryTypeLookup QueryType = "lookup"
)

// recommendationPatterns match queries asking which thing to pick.
var recommendationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brecommend(ation)?s?\b`),
	regexp.MustCompile(`(?i)\bsuggest(ion)?s?\b`),
	regexp.MustCompile(`(?i)\b(best|top)\s+\w+`),
	regexp.MustCompile(`(?i)\bwhich\b.*\b(should|better|best|pick|choose|buy|use)\b`),
	regexp.MustCompile(`(?i)\bworth\s+(buying|using|trying)\b`),
	regexp.MustCompile(`(?i)\balternatives?\s+to\b`),
	regexp.MustCompile(`(?i)\bvs\.?\s`),
}

// recommendationIndicators are literal substrings, including common Chinese
// recommendation phrasings.
var recommendationIndicators = []string{
	"推荐",
	"哪个好",
	"哪款",
	"值得买",
	"求推荐",
}

// ClassifyQuery decides how a query should be answered.
func ClassifyQuery(query string) QueryType {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return QueryTypeLookup
	}

	for _, pattern := range recommendationPatterns {
		if pattern.MatchString(queryLower) {
			return QueryTypeRecommendation
		}
	}
	for _, indicator := range recommendationIndicators {
		if strings.Contains(query, indicator) {
			return QueryTypeRecommendation
		}
	}
	return QueryTypeLookup
}
