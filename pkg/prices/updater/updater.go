// Package updater runs the scheduled price update: read token symbols,
// aggregate oracle prices and write them back.
package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/aggregator"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/oracles"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/symbols"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

// ErrRun tags every error that aborts a price update run.
var ErrRun = errors.New("price update failed")

// Job is the price update job.
type Job struct {
	connector   store.Connector
	oracles     []oracles.Oracle
	aggregator  *aggregator.AverageAggregator
	sink        *Sink
	collections []string
	limit       int64
	exclude     []string
	logger      *logging.Logger
}

// NewJob creates the price job. The oracle list is used as given for every run.
func NewJob(cfg *config.PricesConfig, connector store.Connector, list []oracles.Oracle, logger *logging.Logger) *Job {
	logger = logger.With("job", "prices")
	return &Job{
		connector:   connector,
		oracles:     list,
		aggregator:  aggregator.NewAverageAggregator(logger),
		sink:        NewSink(cfg, logger),
		collections: cfg.Collections,
		limit:       cfg.TokenLimit,
		exclude:     cfg.ExcludePrefixes,
		logger:      logger,
	}
}

// Name returns the job name
func (j *Job) Name() string {
	return "prices"
}

// Run performs one update over every configured collection, sequentially,
// on a single store connection that is closed before returning.
func (j *Job) Run(ctx context.Context) (err error) {
	st, err := j.connector.Connect(ctx)
	if err != nil {
		j.logger.Error("Failed to connect to database", "error", err)
		return fmt.Errorf("%w: %w", ErrRun, err)
	}
	defer func() {
		if cerr := st.Close(context.WithoutCancel(ctx)); cerr != nil {
			j.logger.Warn("Failed to close database connection", "error", cerr)
		}
	}()

	for _, collection := range j.collections {
		if err := j.updateCollection(ctx, st, collection); err != nil {
			j.logger.Error("Price update aborted", "collection", collection, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrRun, collection, err)
		}
	}
	return nil
}

func (j *Job) updateCollection(ctx context.Context, st store.Tokens, collection string) error {
	tokens, err := st.FindTokens(ctx, collection, j.limit)
	if err != nil {
		return fmt.Errorf("failed to get tokens: %w", err)
	}

	syms, err := symbols.Extract(tokens, j.exclude)
	if err != nil {
		return fmt.Errorf("failed to get symbols: %w", err)
	}
	j.logger.Debug("Extracted symbols", "collection", collection, "symbols", syms)

	prices, report := j.aggregator.Aggregate(ctx, syms, j.oracles)
	if len(report.Failures) > 0 {
		j.logger.Warn("Some oracles failed", "collection", collection, "failed", len(report.Failures))
	}

	res, err := j.sink.Persist(ctx, st, collection, prices)
	if err != nil {
		return fmt.Errorf("failed to persist prices: %w", err)
	}

	j.logger.Info("Prices updated",
		"collection", collection,
		"symbols", len(syms),
		"written", res.Written,
		"skipped", res.Skipped,
		"documents", res.Matched)
	return nil
}
