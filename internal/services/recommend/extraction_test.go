package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionBareArray(t *testing.T) {
	items, err := ParseExtraction(`[{"name": "X", "posts": [{"content": "c", "popularity": 3, "sentiment": "positive"}], "summary": "s"}]`)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].Name)
	assert.Equal(t, int64(3), items[0].Posts[0].Popularity)
}

func TestParseExtractionFencedBlock(t *testing.T) {
	response := "```json\n[{\"name\": \"X\", \"posts\": [], \"summary\": \"\"}]\n```"

	items, err := ParseExtraction(response)

	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParseExtractionSurroundingProse(t *testing.T) {
	response := `Sure, here are the items:
[{"name": "X", "posts": [], "summary": ""}]
Let me know if you need anything else.`

	items, err := ParseExtraction(response)

	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParseExtractionRepairsInvalidEscapes(t *testing.T) {
	response := `[{"name": "X", "posts": [{"content": "it\'s great", "popularity": 1, "sentiment": "positive"}], "summary": ""}]`

	items, err := ParseExtraction(response)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "it's great", items[0].Posts[0].Content)
}

func TestParseExtractionGarbage(t *testing.T) {
	for _, response := range []string{
		"I cannot help with that.",
		"",
		"{not valid at all",
		`{"name": "an object, not an array"}`,
	} {
		_, err := ParseExtraction(response)
		var malformed *MalformedExtractionError
		require.ErrorAs(t, err, &malformed, "response: %q", response)
	}
}

func TestRatingForSentiment(t *testing.T) {
	tests := []struct {
		sentiment string
		want      float64
	}{
		{"very positive", 5},
		{"Positive", 4},
		{"neutral", 3},
		{"negative", 2},
		{"very negative", 1},
		{"enthusiastic", 3},
		{"", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RatingForSentiment(tt.sentiment), tt.sentiment)
	}
}

func TestFoldSentiment(t *testing.T) {
	assert.Equal(t, "positive", FoldSentiment("very positive"))
	assert.Equal(t, "positive", FoldSentiment("positive"))
	assert.Equal(t, "negative", FoldSentiment("Very Negative"))
	assert.Equal(t, "neutral", FoldSentiment("mixed"))
	assert.Equal(t, "neutral", FoldSentiment(""))
}
