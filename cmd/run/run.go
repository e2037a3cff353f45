package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"ragingest/chunk"
	"ragingest/extract"
	"ragingest/fetch"
	"ragingest/limiter"
	"ragingest/log"
	"ragingest/pipeline"
	"ragingest/proxy"
	"ragingest/segment"
	"ragingest/sqlstorage"
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "fetch, extract and chunk urls into the index database.",
	Long:  "fetch, extract and chunk urls into the index database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run()
	},
}

var (
	urls          []string
	chunkSize     int
	overlapRatio  float64
	concurrency   int
	dbPath        string
	rulesPath     string
	batchSize     int
	logLevel      string
	logFile       string
	timeout       time.Duration
	maxRetries    int
	backoffFactor time.Duration
	ratePerSecond int
	proxyURLs     []string
)

func init() {
	RunCmd.Flags().StringSliceVar(
		&urls, "urls", nil, "urls to process")
	RunCmd.MarkFlagRequired("urls")

	RunCmd.Flags().IntVar(
		&chunkSize, "chunk-size", 500, "chunk size in tokens")

	RunCmd.Flags().Float64Var(
		&overlapRatio, "overlap-ratio", 0.2, "overlap ratio between chunks")

	RunCmd.Flags().IntVar(
		&concurrency, "concurrency", 10, "max concurrent fetches")

	RunCmd.Flags().StringVar(
		&dbPath, "db-path", "rag_data.db", "path to the sqlite database")

	RunCmd.Flags().StringVar(
		&rulesPath, "rules", "", "path to a JSON file with domain-specific extraction rules")

	RunCmd.Flags().IntVar(
		&batchSize, "batch-size", 100, "batch size for chunk inserts")

	RunCmd.Flags().StringVar(
		&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	RunCmd.Flags().StringVar(
		&logFile, "log-file", "", "also write logs to this file")

	RunCmd.Flags().DurationVar(
		&timeout, "timeout", 30*time.Second, "per-request timeout")

	RunCmd.Flags().IntVar(
		&maxRetries, "max-retries", 3, "fetch attempts per url")

	RunCmd.Flags().DurationVar(
		&backoffFactor, "backoff", 500*time.Millisecond, "base retry backoff")

	RunCmd.Flags().IntVar(
		&ratePerSecond, "rate", 0, "max requests per second, 0 disables throttling")

	RunCmd.Flags().StringSliceVar(
		&proxyURLs, "proxy", nil, "proxy urls, rotated per request")
}

func validateConfig() error {
	cases := []struct {
		ok  bool
		msg string
	}{
		{concurrency > 0, fmt.Sprintf("concurrency must be positive, got %d", concurrency)},
		{batchSize > 0, fmt.Sprintf("batch-size must be positive, got %d", batchSize)},
		{maxRetries > 0, fmt.Sprintf("max-retries must be positive, got %d", maxRetries)},
		{backoffFactor > 0, fmt.Sprintf("backoff must be positive, got %v", backoffFactor)},
		{ratePerSecond >= 0, fmt.Sprintf("rate must not be negative, got %d", ratePerSecond)},
	}

	for _, c := range cases {
		if !c.ok {
			return fmt.Errorf("invalid configuration: %s", c.msg)
		}
	}

	// chunk settings are validated where they are used
	return chunk.Config{ChunkSize: chunkSize, OverlapRatio: overlapRatio}.Validate()
}

func Run() error {
	// All configuration problems must surface before the first fetch.
	if err := validateConfig(); err != nil {
		return err
	}

	// log
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	plugin := log.NewStdoutPlugin(level)
	if logFile != "" {
		filePlugin, closer := log.NewFilePlugin(logFile, level)
		defer closer.Close()
		plugin = zapcore.NewTee(plugin, filePlugin)
	}

	logger := log.NewLogger(plugin)
	zap.ReplaceGlobals(logger)
	logger.Info("log init end")

	// extraction rules
	var rules []*extract.Rule
	if rulesPath != "" {
		if rules, err = extract.LoadRules(rulesPath, logger.Named("rules")); err != nil {
			return err
		}

		logger.Info("loaded extraction rules",
			zap.String("path", rulesPath),
			zap.Int("rules", len(rules)))
	}

	// fetcher
	fetchOpts := []fetch.Option{
		fetch.WithLogger(logger.Named("fetch")),
		fetch.WithTimeout(timeout),
		fetch.WithMaxRetries(maxRetries),
		fetch.WithBackoffFactor(backoffFactor),
	}

	if ratePerSecond > 0 {
		fetchOpts = append(fetchOpts, fetch.WithRateLimiter(limiter.Multi(
			rate.NewLimiter(limiter.Per(ratePerSecond, time.Second), 1),
		)))
	}

	if len(proxyURLs) > 0 {
		p, err := proxy.RoundRobinSwitcher(proxyURLs...)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		fetchOpts = append(fetchOpts, fetch.WithProxy(p))
	}

	fetcher := fetch.New(fetchOpts...)

	// segmenter, built once and injected
	seg, err := segment.NewEnglish()
	if err != nil {
		return err
	}

	chunker, err := chunk.New(seg, chunk.Config{
		ChunkSize:    chunkSize,
		OverlapRatio: overlapRatio,
	})
	if err != nil {
		return err
	}

	// storage
	storage, err := sqlstorage.New(
		sqlstorage.WithDBPath(dbPath),
		sqlstorage.WithBatchCount(batchSize),
		sqlstorage.WithLogger(logger.Named("sqlDB")),
	)
	if err != nil {
		return err
	}
	defer storage.Close()

	runner, err := pipeline.New(
		pipeline.WithFetcher(fetcher),
		pipeline.WithExtractor(extract.NewExtractor(rules, logger.Named("extract"))),
		pipeline.WithChunker(chunker),
		pipeline.WithStorage(storage),
		pipeline.WithLogger(logger),
		pipeline.WithWorkCount(concurrency),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := runner.Run(ctx, urls)
	if err := ctx.Err(); err != nil {
		return err
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d documents failed to store", stats.Failed)
	}

	return nil
}
