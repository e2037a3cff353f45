// Package segment splits normalized text into sentences with exact
// token counts. The model-backed tokenizer is built once at startup and
// passed by handle; nothing here reaches for global state.
package segment

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Sentence is the chunking unit: its trimmed text and its tokens.
type Sentence struct {
	Text   string
	Tokens []string
}

func (s Sentence) TokenCount() int {
	return len(s.Tokens)
}

// Segmenter splits text into ordered sentences. Implementations must be
// deterministic for identical input and safe for concurrent use.
type Segmenter interface {
	Segment(text string) []Sentence
}

// English segments with the punkt English sentence model. Tokens are
// whitespace-delimited, so a chunk rebuilt by space-joining its tokens
// round-trips cleanly.
type English struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewEnglish() (*English, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load english sentence model failed:%w", err)
	}

	return &English{tokenizer: tokenizer}, nil
}

func (e *English) Segment(text string) []Sentence {
	var out []Sentence

	for _, s := range e.tokenizer.Tokenize(text) {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}

		out = append(out, Sentence{
			Text:   trimmed,
			Tokens: strings.Fields(trimmed),
		})
	}

	return out
}
