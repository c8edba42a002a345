package recommend

import "strings"

// sentimentRatings maps the model's sentiment labels onto a 1..5 rating
// scale. Unknown labels fall back to the neutral midpoint rather than
// skewing an item's average.
var sentimentRatings = map[string]float64{
	"very positive": 5,
	"positive":      4,
	"neutral":       3,
	"negative":      2,
	"very negative": 1,
}

const neutralRating = 3

// RatingForSentiment converts a sentiment label into a numeric rating.
func RatingForSentiment(sentiment string) float64 {
	if rating, ok := sentimentRatings[strings.ToLower(strings.TrimSpace(sentiment))]; ok {
		return rating
	}
	return neutralRating
}

// FoldSentiment collapses the 5-point labels into positive, neutral, or
// negative for the tally. "very positive" counts as positive and
// "very negative" as negative; anything unrecognized counts as neutral.
func FoldSentiment(sentiment string) string {
	switch strings.ToLower(strings.TrimSpace(sentiment)) {
	case "very positive", "positive":
		return "positive"
	case "very negative", "negative":
		return "negative"
	default:
		return "neutral"
	}
}
