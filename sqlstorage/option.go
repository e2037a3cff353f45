package sqlstorage

import (
	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	dbPath     string
	BatchCount int
}

var defaultOptions = options{
	logger:     zap.NewNop(),
	dbPath:     "rag_data.db",
	BatchCount: 100,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithDBPath(dbPath string) Option {
	return func(opts *options) {
		opts.dbPath = dbPath
	}
}

func WithBatchCount(batchCount int) Option {
	return func(opts *options) {
		opts.BatchCount = batchCount
	}
}
