package pipeline

import (
	"go.uber.org/zap"

	"ragingest/chunk"
	"ragingest/extract"
	"ragingest/fetch"
)

// Extractor turns one fetched page into a titled text blob.
type Extractor interface {
	Extract(raw []byte, srcURL string) extract.Document
}

// Chunker splits a text blob into ordered chunks.
type Chunker interface {
	Chunk(text string) []chunk.Chunk
}

type Option func(opts *options)

type options struct {
	Fetcher   fetch.Fetcher
	Extractor Extractor
	Chunker   Chunker
	Storage   Storage
	Logger    *zap.Logger
	WorkCount int
}

var defaultOptions = options{
	Logger:    zap.NewNop(),
	WorkCount: 10,
}

func WithFetcher(f fetch.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = f
	}
}

func WithExtractor(e Extractor) Option {
	return func(opts *options) {
		opts.Extractor = e
	}
}

func WithChunker(c Chunker) Option {
	return func(opts *options) {
		opts.Chunker = c
	}
}

func WithStorage(s Storage) Option {
	return func(opts *options) {
		opts.Storage = s
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithWorkCount(workCount int) Option {
	return func(opts *options) {
		if workCount > 0 {
			opts.WorkCount = workCount
		}
	}
}
