package models

// Post is one constituent passage of a recommendation item.
type Post struct {
	Content    string  `json:"content"`
	Popularity int64   `json:"popularity"`
	Sentiment  string  `json:"sentiment"`
	Rating     float64 `json:"rating"` // 1..5, derived from Sentiment
}

// SentimentTally counts posts per folded sentiment class.
type SentimentTally struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// RecommendationItem is a named entity aggregated from retrieved passages.
// Items are computed fresh per query and never persisted beyond the response
// and the conversation-memory log.
type RecommendationItem struct {
	Name                string         `json:"name"`
	Posts               []Post         `json:"posts"`
	AggregatePopularity int64          `json:"aggregate_popularity"` // sum of post popularity
	AverageRating       float64        `json:"average_rating"`       // mean of post ratings
	Mentions            int            `json:"mentions"`             // number of posts
	Sentiments          SentimentTally `json:"sentiments"`
	Score               float64        `json:"score"`
	Summary             string         `json:"summary"`
}
