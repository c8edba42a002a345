package recommend

import (
	"fmt"
	"strings"

	"github.com/ternarybob/suadeo/internal/models"
)

// extractionPromptTemplate instructs the model to pull named items and
// per-post sentiment out of the retrieved passages. The response must be a
// bare JSON array so the parser has a fixed shape to work against.
const extractionPromptTemplate = `You are extracting product and item recommendations from community posts.

User question: %s

Posts (each with its engagement count):
%s

Identify every distinct item (product, library, place, service) the posts recommend or discuss. For each item return:
- "name": the item name, normalized (consistent casing, no duplicates)
- "posts": the posts mentioning it, each with "content" (verbatim excerpt), "popularity" (the engagement count shown for that post), and "sentiment" (one of: "very positive", "positive", "neutral", "negative", "very negative")
- "summary": one sentence on why the posts do or do not recommend it

Respond with ONLY a JSON array of these objects. No prose, no markdown fences.`

// BuildExtractionPrompt renders the extraction instruction over the
// retrieved documents. Each passage carries its popularity inline so the
// model can echo it back per post.
func BuildExtractionPrompt(query string, docs []*models.Document) string {
	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("[%d] (source: %s, engagement: %d)\n%s\n\n",
			i+1, doc.Source, doc.Popularity, doc.Content))
	}
	return fmt.Sprintf(extractionPromptTemplate, query, strings.TrimSpace(sb.String()))
}
