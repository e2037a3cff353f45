// Package chunk splits normalized text into overlapping fixed-size
// chunks, sized in tokens and aligned to sentence boundaries.
package chunk

import (
	"fmt"
	"strings"

	"ragingest/segment"
)

// Chunk is one bounded slice of a document, ready for indexing. Order
// is zero-based and gapless within a document.
type Chunk struct {
	Text  string
	Order int
}

// Config holds chunking configuration.
type Config struct {
	// ChunkSize is the chunk budget in tokens.
	ChunkSize int

	// OverlapRatio is the fraction of ChunkSize repeated at the start
	// of the next chunk, in [0, 1).
	OverlapRatio float64
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    500,
		OverlapRatio: 0.2,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}
	if c.OverlapRatio < 0 || c.OverlapRatio >= 1 {
		return fmt.Errorf("OverlapRatio must be in [0, 1), got %v", c.OverlapRatio)
	}
	return nil
}

type Chunker struct {
	seg    segment.Segmenter
	config Config
}

// New creates a Chunker bound to a segmenter. Returns an error if the
// configuration is invalid, so bad settings are caught before any
// document is processed.
func New(seg segment.Segmenter, cfg Config) (*Chunker, error) {
	if seg == nil {
		return nil, fmt.Errorf("segmenter must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Chunker{seg: seg, config: cfg}, nil
}

// Chunk splits text into overlapping chunks in a single forward pass
// over its sentences. A sentence is never split: one longer than the
// whole budget yields an oversized chunk instead. Each chunk after the
// first starts with the trailing overlap tokens of the one before it.
func (c *Chunker) Chunk(text string) []Chunk {
	sents := c.seg.Segment(text)
	if len(sents) == 0 {
		return nil
	}

	overlap := int(float64(c.config.ChunkSize) * c.config.OverlapRatio)

	var (
		chunks []Chunk
		cur    []string
	)

	for _, sent := range sents {
		if len(cur)+sent.TokenCount() <= c.config.ChunkSize {
			cur = append(cur, sent.Tokens...)

			continue
		}

		if len(cur) > 0 {
			chunks = append(chunks, Chunk{
				Text:  strings.Join(cur, " "),
				Order: len(chunks),
			})
		}

		// Seed the next chunk from the chunk just closed, before the
		// overflowing sentence is added; seeding after changes every
		// boundary downstream.
		seed := cur
		if len(seed) > overlap {
			seed = seed[len(seed)-overlap:]
		}

		next := make([]string, 0, len(seed)+sent.TokenCount())
		next = append(next, seed...)
		next = append(next, sent.Tokens...)
		cur = next
	}

	if len(cur) > 0 {
		chunks = append(chunks, Chunk{
			Text:  strings.Join(cur, " "),
			Order: len(chunks),
		})
	}

	return chunks
}

// Texts flattens chunks for handoff to storage, preserving order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}

	return out
}
