// Package pipeline wires fetching, extraction and chunking together
// and hands finished documents to storage.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ragingest/chunk"
	"ragingest/fetch"
)

// Storage is the external sink for finished documents. Upsert must
// replace the stored chunk set for a URL in full, keeping chunk order.
type Storage interface {
	Upsert(url, title string, chunks []string) error
}

// Stats sums up one run. Skipped counts documents dropped for fetch
// failures or empty extractions; Failed counts storage errors.
type Stats struct {
	Fetched int
	Stored  int
	Skipped int
	Failed  int
	Chunks  int
}

type Runner struct {
	options
}

// New builds a Runner; all four stage collaborators are required.
func New(opts ...Option) (*Runner, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	switch {
	case options.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case options.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case options.Chunker == nil:
		return nil, errors.New("pipeline: chunker is required")
	case options.Storage == nil:
		return nil, errors.New("pipeline: storage is required")
	}

	r := &Runner{}
	r.options = options

	return r, nil
}

// Run processes every URL and reports what happened. Per-document
// failures are logged and counted, never escalated; only a canceled
// context ends the run early.
func (r *Runner) Run(ctx context.Context, urls []string) Stats {
	var stats Stats

	r.Logger.Info("starting ingestion",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", r.WorkCount))

	results := fetch.All(ctx, r.Fetcher, urls, r.WorkCount, r.Logger)

	for _, result := range results {
		if ctx.Err() != nil {
			break
		}

		if !result.Succeeded || len(result.Content) == 0 {
			r.Logger.Warn("skipping url, no content",
				zap.String("url", result.URL))
			stats.Skipped++

			continue
		}

		stats.Fetched++

		doc := r.Extractor.Extract(result.Content, result.URL)
		if doc.Text == "" {
			r.Logger.Warn("skipping url, extraction produced no text",
				zap.String("url", result.URL))
			stats.Skipped++

			continue
		}

		chunks := r.Chunker.Chunk(doc.Text)
		if len(chunks) == 0 {
			// Nothing to index; the sink is not called for an
			// empty chunk list.
			r.Logger.Warn("skipping url, no chunks",
				zap.String("url", result.URL))
			stats.Skipped++

			continue
		}

		if err := r.Storage.Upsert(result.URL, doc.Title, chunk.Texts(chunks)); err != nil {
			r.Logger.Error("store document failed",
				zap.String("url", result.URL),
				zap.Error(err))
			stats.Failed++

			continue
		}

		stats.Stored++
		stats.Chunks += len(chunks)
	}

	r.Logger.Info("ingestion finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("stored", stats.Stored),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("chunks", stats.Chunks))

	return stats
}
