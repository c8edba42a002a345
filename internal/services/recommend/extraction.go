package recommend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractedPost is one post mention as reported by the model.
type ExtractedPost struct {
	Content    string `json:"content"`
	Popularity int64  `json:"popularity"`
	Sentiment  string `json:"sentiment"`
}

// ExtractedItem is one named item as reported by the model, before
// popularity reconciliation and scoring.
type ExtractedItem struct {
	Name    string          `json:"name"`
	Posts   []ExtractedPost `json:"posts"`
	Summary string          `json:"summary"`
}

// MalformedExtractionError reports a model response that survived none of
// the parsing strategies. The raw response is retained for logging.
type MalformedExtractionError struct {
	Response string
	Err      error
}

func (e *MalformedExtractionError) Error() string {
	return fmt.Sprintf("malformed extraction response: %v", e.Err)
}

func (e *MalformedExtractionError) Unwrap() error {
	return e.Err
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// invalidEscapePattern matches backslashes not starting a valid JSON escape.
// Models occasionally emit sequences like \' or a stray \ inside excerpts.
var invalidEscapePattern = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// ParseExtraction decodes the model response into extracted items. Parsing
// is attempted in order of increasing repair: the raw text, a markdown fence
// unwrap, the outermost bracketed span, and finally the span with invalid
// escape sequences stripped. Exhausting all strategies yields a
// *MalformedExtractionError.
func ParseExtraction(response string) ([]ExtractedItem, error) {
	candidates := []string{strings.TrimSpace(response)}

	if matches := fencePattern.FindStringSubmatch(response); len(matches) > 1 {
		candidates = append(candidates, strings.TrimSpace(matches[1]))
	}

	if span, ok := bracketSpan(response); ok {
		candidates = append(candidates, span)
		candidates = append(candidates, invalidEscapePattern.ReplaceAllString(span, "$1"))
	}

	var lastErr error
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var items []ExtractedItem
		if err := json.Unmarshal([]byte(candidate), &items); err != nil {
			lastErr = err
			continue
		}
		return items, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON array found")
	}
	return nil, &MalformedExtractionError{Response: response, Err: lastErr}
}

// bracketSpan returns the substring from the first '[' to the last ']'.
func bracketSpan(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
