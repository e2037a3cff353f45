package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Error is the terminal failure for one URL after all retry attempts
// are exhausted.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RetryFetch fetches a URL with exponential backoff between attempts.
// The wait before retry n is BackoffFactor * 2^n, no jitter, so retry
// timing is reproducible.
type RetryFetch struct {
	options
	client *http.Client
}

func New(opts ...Option) *RetryFetch {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	f := &RetryFetch{}
	f.options = options

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	if f.proxy != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = f.proxy
		f.client.Transport = transport
	}

	return f
}

func (f *RetryFetch) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoffFactor
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoffInterval
	b.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++

		var err error
		body, err = f.doGet(ctx, url)
		if err == nil {
			return nil
		}

		// Cancellation is not a transport failure; stop immediately.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}

		f.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err))

		return err
	}

	if err := backoff.RetryNotify(operation, bo, f.notify); err != nil {
		var perr *backoff.PermanentError
		if errors.As(err, &perr) {
			err = perr.Err
		}

		f.logger.Error("fetch failed",
			zap.String("url", url),
			zap.Int("attempts", attempt),
			zap.Error(err))

		return nil, &Error{URL: url, Err: err}
	}

	return body, nil
}

func (f *RetryFetch) doGet(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request failed:%w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("error status code:%d", resp.StatusCode)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DeterminEncoding(bodyReader, f.logger)
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())

	return io.ReadAll(utf8Reader)
}

func DeterminEncoding(r *bufio.Reader, logger *zap.Logger) encoding.Encoding {
	bytes, err := r.Peek(1024)

	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		logger.Error("peek body failed", zap.Error(err))

		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(bytes, "")

	return e
}

const maxBackoffInterval = 30 * time.Second
