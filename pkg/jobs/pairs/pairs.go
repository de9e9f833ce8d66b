// Package pairs mirrors the secretswap pair contracts into the store.
package pairs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vazco/EthereumBridgeBackend/pkg/chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

// ErrRun tags every error that ends a pairs run.
var ErrRun = errors.New("pair discovery failed")

const queryConcurrency = 8

// Job discovers pair contracts created by the factory and stores the new ones.
type Job struct {
	connector  store.Connector
	querier    chain.Querier
	collection string
	factory    string
	codeID     uint64
	logger     *logging.Logger
}

// NewJob creates the pairs job.
func NewJob(cfg *config.PairsJobConfig, connector store.Connector, querier chain.Querier, logger *logging.Logger) *Job {
	return &Job{
		connector:  connector,
		querier:    querier,
		collection: cfg.Collection,
		factory:    cfg.FactoryContract,
		codeID:     cfg.PairCodeID,
		logger:     logger.With("job", "pairs"),
	}
}

// Name returns the job name
func (j *Job) Name() string {
	return "pairs"
}

// Run lists the pair contracts, queries every unknown one and inserts them
// all at once. Any chain error ends the run before anything is written.
func (j *Job) Run(ctx context.Context) error {
	st, err := j.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRun, err)
	}
	defer func() {
		if cerr := st.Close(context.WithoutCancel(ctx)); cerr != nil {
			j.logger.Warn("Failed to close database connection", "error", cerr)
		}
	}()

	known, err := st.PairIDs(ctx, j.collection)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	addrs, err := j.newPairAddresses(ctx, known)
	if err != nil {
		j.logger.Error("Failed to list pair contracts", "error", err)
		return fmt.Errorf("%w: %w", ErrRun, err)
	}
	if len(addrs) == 0 {
		j.logger.Info("No new pairs")
		return nil
	}

	pairs, err := j.describe(ctx, addrs)
	if err != nil {
		j.logger.Error("Failed to query pair contracts", "error", err)
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	if err := st.InsertPairs(ctx, j.collection, pairs); err != nil {
		j.logger.Error("Failed to insert pairs", "error", err)
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	j.logger.Info("Pairs inserted", "count", len(pairs))
	return nil
}

// newPairAddresses returns the contracts of the pair code id that are not
// stored yet and whose label ends with "<factory>-<code id>".
func (j *Job) newPairAddresses(ctx context.Context, known map[string]struct{}) ([]string, error) {
	all, err := j.querier.ContractsByCode(ctx, j.codeID)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for _, addr := range all {
		if _, ok := known[addr]; !ok {
			unknown = append(unknown, addr)
		}
	}

	suffix := j.factory + "-" + strconv.FormatUint(j.codeID, 10)
	keep := make([]bool, len(unknown))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queryConcurrency)
	for i, addr := range unknown {
		g.Go(func() error {
			info, err := j.querier.ContractInfo(gctx, addr)
			if err != nil {
				return fmt.Errorf("contract info %s: %w", addr, err)
			}
			keep[i] = strings.HasSuffix(info.Label, suffix)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(unknown))
	for i, addr := range unknown {
		if keep[i] {
			out = append(out, addr)
		}
	}
	return out, nil
}

func (j *Job) describe(ctx context.Context, addrs []string) ([]store.Pair, error) {
	pairs := make([]store.Pair, len(addrs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queryConcurrency)
	for i, addr := range addrs {
		g.Go(func() error {
			p, err := j.describePair(gctx, addr)
			if err != nil {
				return fmt.Errorf("pair %s: %w", addr, err)
			}
			pairs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (j *Job) describePair(ctx context.Context, addr string) (store.Pair, error) {
	var (
		info    pairInfoResponse
		factory factoryInfoResponse
		pool    poolResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info, err = chain.Query[pairInfoResponse](gctx, j.querier, addr, map[string]struct{}{"pair_info": {}})
		return err
	})
	g.Go(func() (err error) {
		factory, err = chain.Query[factoryInfoResponse](gctx, j.querier, addr, map[string]struct{}{"factory_info": {}})
		return err
	})
	g.Go(func() (err error) {
		pool, err = chain.Query[poolResponse](gctx, j.querier, addr, map[string]struct{}{"pool": {}})
		return err
	})
	if err := g.Wait(); err != nil {
		return store.Pair{}, err
	}

	return store.Pair{
		ID:             addr,
		ContractAddr:   addr,
		LiquidityToken: info.PairInfo.LiquidityToken.Address,
		TokenCodeHash:  info.PairInfo.LiquidityToken.CodeHash,
		AssetInfos: []store.AssetInfo{
			info.PairInfo.Pair.Token0.assetInfo(),
			info.PairInfo.Pair.Token1.assetInfo(),
		},
		Factory: store.Contract{
			Address:  factory.FactoryInfo.Address,
			CodeHash: factory.FactoryInfo.CodeHash,
		},
		Asset0Volume: pool.Pool.Amount0,
		Asset1Volume: pool.Pool.Amount1,
	}, nil
}
