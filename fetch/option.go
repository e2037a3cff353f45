package fetch

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"ragingest/limiter"
	"ragingest/proxy"
)

type Option func(opts *options)

type options struct {
	logger        *zap.Logger
	timeout       time.Duration
	maxRetries    int
	backoffFactor time.Duration
	userAgent     string
	limiter       limiter.RateLimiter
	proxy         proxy.Func
	notify        backoff.Notify
}

var defaultOptions = options{
	logger:        zap.NewNop(),
	timeout:       30 * time.Second,
	maxRetries:    3,
	backoffFactor: 500 * time.Millisecond,
	userAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func WithMaxRetries(maxRetries int) Option {
	return func(opts *options) {
		if maxRetries > 0 {
			opts.maxRetries = maxRetries
		}
	}
}

func WithBackoffFactor(factor time.Duration) Option {
	return func(opts *options) {
		if factor > 0 {
			opts.backoffFactor = factor
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}

func WithRateLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limiter = l
	}
}

func WithProxy(p proxy.Func) Option {
	return func(opts *options) {
		opts.proxy = p
	}
}

// WithNotify registers a callback invoked with the duration of every
// backoff wait. Used to observe retry timing.
func WithNotify(notify backoff.Notify) Option {
	return func(opts *options) {
		opts.notify = notify
	}
}
