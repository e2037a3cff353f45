package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragingest/chunk"
	"ragingest/extract"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("unreachable: %s", url)
	}

	return []byte(body), nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(raw []byte, srcURL string) extract.Document {
	return extract.Document{Title: "title of " + srcURL, Text: strings.TrimSpace(string(raw))}
}

type fakeChunker struct{}

func (fakeChunker) Chunk(text string) []chunk.Chunk {
	var chunks []chunk.Chunk
	for i, word := range strings.Fields(text) {
		chunks = append(chunks, chunk.Chunk{Text: word, Order: i})
	}

	return chunks
}

type fakeStorage struct {
	upserts map[string][]string
	titles  map[string]string
	failFor string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		upserts: make(map[string][]string),
		titles:  make(map[string]string),
	}
}

func (s *fakeStorage) Upsert(url, title string, chunks []string) error {
	if url == s.failFor {
		return errors.New("sink unavailable")
	}

	s.upserts[url] = chunks
	s.titles[url] = title

	return nil
}

func newRunner(t *testing.T, f *fakeFetcher, s *fakeStorage) *Runner {
	t.Helper()

	r, err := New(
		WithFetcher(f),
		WithExtractor(fakeExtractor{}),
		WithChunker(fakeChunker{}),
		WithStorage(s),
		WithLogger(zap.NewNop()),
		WithWorkCount(2),
	)
	require.NoError(t, err)

	return r
}

func TestNew_RequiresCollaborators(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "no fetcher", opts: []Option{
			WithExtractor(fakeExtractor{}), WithChunker(fakeChunker{}), WithStorage(newFakeStorage()),
		}},
		{name: "no extractor", opts: []Option{
			WithFetcher(&fakeFetcher{}), WithChunker(fakeChunker{}), WithStorage(newFakeStorage()),
		}},
		{name: "no chunker", opts: []Option{
			WithFetcher(&fakeFetcher{}), WithExtractor(fakeExtractor{}), WithStorage(newFakeStorage()),
		}},
		{name: "no storage", opts: []Option{
			WithFetcher(&fakeFetcher{}), WithExtractor(fakeExtractor{}), WithChunker(fakeChunker{}),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestRun_StoresFetchedDocuments(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://a.test/": "alpha beta",
		"http://b.test/": "gamma",
	}}
	s := newFakeStorage()

	stats := newRunner(t, f, s).Run(context.Background(), []string{"http://a.test/", "http://b.test/"})

	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Chunks)

	assert.Equal(t, []string{"alpha", "beta"}, s.upserts["http://a.test/"])
	assert.Equal(t, []string{"gamma"}, s.upserts["http://b.test/"])
	assert.Equal(t, "title of http://a.test/", s.titles["http://a.test/"])
}

func TestRun_FetchFailureSkipsDocumentOnly(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://ok.test/": "content here",
	}}
	s := newFakeStorage()

	stats := newRunner(t, f, s).Run(context.Background(), []string{"http://down.test/", "http://ok.test/"})

	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, s.upserts, "http://ok.test/")
	assert.NotContains(t, s.upserts, "http://down.test/")
}

func TestRun_EmptyExtractionSkipsSink(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://empty.test/": "   ",
	}}
	s := newFakeStorage()

	stats := newRunner(t, f, s).Run(context.Background(), []string{"http://empty.test/"})

	// No chunks, no sink call; consistent policy for empty documents.
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Stored)
	assert.Empty(t, s.upserts)
}

func TestRun_StorageFailureIsCountedNotFatal(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://a.test/": "one",
		"http://b.test/": "two",
	}}
	s := newFakeStorage()
	s.failFor = "http://a.test/"

	stats := newRunner(t, f, s).Run(context.Background(), []string{"http://a.test/", "http://b.test/"})

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Stored)
	assert.Contains(t, s.upserts, "http://b.test/")
}

func TestRun_NoURLs(t *testing.T) {
	stats := newRunner(t, &fakeFetcher{}, newFakeStorage()).Run(context.Background(), nil)

	assert.Equal(t, Stats{}, stats)
}
