package fetch

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Result holds the outcome for one URL of a batch. Content is nil when
// Succeeded is false. Results are not ordered; correlate by URL.
type Result struct {
	URL       string
	Content   []byte
	Succeeded bool
}

// All fetches every URL with at most limit fetches in flight. A fixed
// pool of workers drains the job channel, so the concurrency bound holds
// structurally and a failing URL can never starve the pool. All returns
// one Result per input URL, after every worker has finished.
func All(ctx context.Context, f Fetcher, urls []string, limit int, logger *zap.Logger) []Result {
	if len(urls) == 0 {
		return nil
	}

	if limit <= 0 || limit > len(urls) {
		limit = len(urls)
	}

	jobs := make(chan string)
	out := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(limit)

	for i := 0; i < limit; i++ {
		go func() {
			defer wg.Done()

			for url := range jobs {
				body, err := f.Get(ctx, url)
				if err != nil {
					// Failure is downgraded here so one bad URL
					// never aborts its siblings.
					logger.Warn("fetch failed, skipping url",
						zap.String("url", url),
						zap.Error(err))
					out <- Result{URL: url, Succeeded: false}

					continue
				}

				out <- Result{URL: url, Content: body, Succeeded: true}
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, url := range urls {
			select {
			case jobs <- url:
			case <-ctx.Done():
				// Abandon remaining jobs; in-flight fetches fail
				// on their own via the request context.
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]Result, 0, len(urls))
	for r := range out {
		results = append(results, r)
	}

	return results
}
