package textproc

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
	"github.com/ternarybob/arbor"
)

// Preprocessor turns raw mixed-language text into a deterministic normalized
// token stream for the lexical index. Latin-script text is lowercased, split
// on non-letter runs, and filtered against an English stopword set; text
// containing CJK characters goes through a dictionary segmenter and a CJK
// stopword set. Tokens of length <= 1 are dropped.
type Preprocessor struct {
	logger arbor.ILogger

	segOnce sync.Once
	seg     gse.Segmenter
	segErr  error
}

// NewPreprocessor creates a preprocessor. The CJK segmenter dictionary is
// loaded lazily on the first CJK input.
func NewPreprocessor(logger arbor.ILogger) *Preprocessor {
	return &Preprocessor{logger: logger}
}

// Preprocess returns the normalized token stream for text. It never fails:
// empty input, or input reduced to nothing by filtering, yields an empty
// slice.
func (p *Preprocessor) Preprocess(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return []string{}
	}

	text = stripPunctuation(text)

	var raw []string
	if ContainsCJK(text) {
		raw = p.segmentCJK(text)
	} else {
		raw = strings.Fields(text)
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		if _, stop := latinStopwords[tok]; stop {
			continue
		}
		if _, stop := cjkStopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// PreprocessJoined returns the token stream as a single whitespace-joined
// string, the form the lexical index stores per document.
func (p *Preprocessor) PreprocessJoined(text string) string {
	return strings.Join(p.Preprocess(text), " ")
}

// ContainsCJK reports whether text contains any Han, Hiragana, Katakana, or
// Hangul characters.
func ContainsCJK(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) ||
			unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) ||
			unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// segmentCJK runs the gse dictionary segmenter. If the dictionary fails to
// load, the text degrades to whitespace splitting rather than erroring.
func (p *Preprocessor) segmentCJK(text string) []string {
	p.segOnce.Do(func() {
		p.segErr = p.seg.LoadDict()
		if p.segErr != nil && p.logger != nil {
			p.logger.Warn().Err(p.segErr).Msg("Failed to load CJK dictionary, falling back to whitespace tokens")
		}
	})
	if p.segErr != nil {
		return strings.Fields(text)
	}
	return p.seg.Cut(text, true)
}

// stripPunctuation replaces punctuation and symbols with spaces, preserving
// letters, digits, and existing whitespace.
func stripPunctuation(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
