// Package statistics maintains the supply and market cap document of a
// SNIP-20 token.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vazco/EthereumBridgeBackend/pkg/chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

var (
	// ErrRun tags every error that ends a statistics run.
	ErrRun = errors.New("token statistics update failed")
	// ErrTokenNotFound indicates that the configured token is not stored.
	ErrTokenNotFound = errors.New("token not found")
	// ErrNoPrice indicates that the token document carries no usable price.
	ErrNoPrice = errors.New("token has no price")
	// ErrNoScheduleEntry indicates that the schedule has no entry for today.
	ErrNoScheduleEntry = errors.New("no schedule entry")
)

type tokenInfoResponse struct {
	TokenInfo struct {
		Name        string `json:"name"`
		Symbol      string `json:"symbol"`
		Decimals    int32  `json:"decimals"`
		TotalSupply string `json:"total_supply"`
	} `json:"token_info"`
}

// Job is the token statistics job.
type Job struct {
	connector    store.Connector
	querier      chain.Querier
	cfg          config.StatisticsJobConfig
	lockedByTeam decimal.Decimal
	now          func() time.Time
	logger       *logging.Logger
}

// NewJob creates the statistics job. An unparsable tokens_locked_by_team
// counts as zero.
func NewJob(cfg *config.StatisticsJobConfig, connector store.Connector, querier chain.Querier, logger *logging.Logger) *Job {
	locked, err := decimal.NewFromString(cfg.TokensLockedByTeam)
	if err != nil {
		locked = decimal.Zero
	}
	return &Job{
		connector:    connector,
		querier:      querier,
		cfg:          *cfg,
		lockedByTeam: locked,
		now:          time.Now,
		logger:       logger.With("job", "statistics"),
	}
}

// Name returns the job name
func (j *Job) Name() string {
	return "statistics"
}

// Run recomputes the statistics document of the configured token.
func (j *Job) Run(ctx context.Context) error {
	schedule, err := LoadSchedule(j.cfg.ScheduleFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	st, err := j.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRun, err)
	}
	defer func() {
		if cerr := st.Close(context.WithoutCancel(ctx)); cerr != nil {
			j.logger.Warn("Failed to close database connection", "error", cerr)
		}
	}()

	stats, err := j.compute(ctx, st, schedule)
	if err != nil {
		j.logger.Error("Failed to compute token statistics", "token", j.cfg.TokenSymbol, "error", err)
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	if err := st.UpsertStatistics(ctx, j.cfg.Collection, stats); err != nil {
		return fmt.Errorf("%w: %w", ErrRun, err)
	}

	j.logger.Info("Token statistics updated",
		"token", stats.Symbol,
		"circulating_supply", stats.CirculatingSupply,
		"market_cap_usd", stats.MarketCapUSD)
	return nil
}

func (j *Job) compute(ctx context.Context, st store.Tokens, schedule Schedule) (store.TokenStatistics, error) {
	token, err := j.findToken(ctx, st)
	if err != nil {
		return store.TokenStatistics{}, err
	}

	contract, ok := token.String("dst_address")
	if !ok || contract == "" {
		return store.TokenStatistics{}, fmt.Errorf("%w: missing dst_address", ErrTokenNotFound)
	}

	priceStr, _ := token.String("price")
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return store.TokenStatistics{}, fmt.Errorf("%w: %q", ErrNoPrice, priceStr)
	}

	info, err := chain.Query[tokenInfoResponse](ctx, j.querier, contract, map[string]struct{}{"token_info": {}})
	if err != nil {
		return store.TokenStatistics{}, fmt.Errorf("token_info: %w", err)
	}
	total, err := decimal.NewFromString(info.TokenInfo.TotalSupply)
	if err != nil {
		return store.TokenStatistics{}, fmt.Errorf("token_info total_supply: %w", err)
	}
	total = total.Shift(-info.TokenInfo.Decimals)

	scheduled, err := schedule.SupplyOn(j.now())
	if err != nil {
		return store.TokenStatistics{}, err
	}
	circulating := scheduled.Sub(j.lockedByTeam)

	return store.TokenStatistics{
		Name:               j.cfg.TokenName,
		Symbol:             j.cfg.TokenSymbol,
		Decimals:           int(info.TokenInfo.Decimals),
		TotalSupply:        total.InexactFloat64(),
		MaxSupply:          total.InexactFloat64(),
		CirculatingSupply:  circulating.InexactFloat64(),
		PriceUSD:           price.InexactFloat64(),
		MarketCapUSD:       price.Mul(circulating).InexactFloat64(),
		TokensLockedByTeam: j.lockedByTeam.InexactFloat64(),
		ContractAddress:    contract,
		Network:            j.cfg.Network,
		Type:               j.cfg.TokenType,
	}, nil
}

func (j *Job) findToken(ctx context.Context, st store.Tokens) (store.Token, error) {
	docs, err := st.FindTokensBy(ctx, j.cfg.SourceCollection, "name", j.cfg.TokenName)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if sym, _ := d.DisplaySymbol(); sym == j.cfg.TokenSymbol {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrTokenNotFound, j.cfg.TokenName, j.cfg.TokenSymbol)
}
