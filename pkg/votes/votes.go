// Package votes registers secret voting contracts and records their outcome.
package votes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vazco/EthereumBridgeBackend/pkg/chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

var (
	// ErrContractQuery indicates that a voting or pool contract query failed.
	ErrContractQuery = errors.New("error querying voting contract")
	// ErrVoteExists indicates that the vote contract is already registered.
	ErrVoteExists = errors.New("voting contract already exists")
	// ErrNotFinalized indicates that the vote is still running on chain.
	ErrNotFinalized = errors.New("vote has not been finalized yet")
	// ErrUpdate indicates that the stored vote could not be updated.
	ErrUpdate = errors.New("could not update vote")
)

type voteInfoResponse struct {
	VoteInfo struct {
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			VoteType    string `json:"vote_type"`
			AuthorAddr  string `json:"author_addr"`
			AuthorAlias string `json:"author_alias"`
		} `json:"metadata"`
		Config struct {
			EndTimestamp int64    `json:"end_timestamp"`
			Quorum       float64  `json:"quorum"`
			MinThreshold float64  `json:"min_threshold"`
			Choices      []string `json:"choices"`
			Finalized    bool     `json:"finalized"`
			Valid        bool     `json:"valid"`
		} `json:"config"`
		RevealCom struct {
			N         int      `json:"n"`
			Revealers []string `json:"revealers"`
		} `json:"reveal_com"`
	} `json:"vote_info"`
}

// Tally is the per-choice vote count of a finalized vote.
type Tally struct {
	Choices []string          `json:"choices"`
	Tally   []decimal.Decimal `json:"tally"`
}

type tallyResponse struct {
	Tally Tally `json:"tally"`
}

type totalLockedResponse struct {
	TotalLocked struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"total_locked"`
}

// Service handles vote registration and finalization.
type Service struct {
	querier        chain.Querier
	votes          store.Votes
	governancePool string
	logger         *logging.Logger
}

// NewService creates a votes service. governancePool is the contract whose
// total_locked is the turnout denominator.
func NewService(querier chain.Querier, votes store.Votes, governancePool string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Service{
		querier:        querier,
		votes:          votes,
		governancePool: governancePool,
		logger:         logger.With("component", "votes"),
	}
}

// List returns every registered vote.
func (s *Service) List(ctx context.Context) ([]store.Vote, error) {
	return s.votes.ListVotes(ctx)
}

// NewVote reads the vote contract and stores it with status IN PROGRESS.
func (s *Service) NewVote(ctx context.Context, addr string) error {
	resp, err := chain.Query[voteInfoResponse](ctx, s.querier, addr, map[string]struct{}{"vote_info": {}})
	if err != nil {
		s.logger.Error("Failed to query voting contract", "address", addr, "error", err)
		return fmt.Errorf("%w %s: %w", ErrContractQuery, addr, err)
	}

	switch _, err := s.votes.FindVote(ctx, addr); {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrVoteExists, addr)
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	info := resp.VoteInfo
	vote := store.Vote{
		Address:      addr,
		Title:        info.Metadata.Title,
		Description:  info.Metadata.Description,
		VoteType:     info.Metadata.VoteType,
		AuthorAddr:   info.Metadata.AuthorAddr,
		AuthorAlias:  info.Metadata.AuthorAlias,
		EndTimestamp: info.Config.EndTimestamp,
		Quorum:       info.Config.Quorum,
		MinThreshold: info.Config.MinThreshold,
		Choices:      info.Config.Choices,
		Finalized:    info.Config.Finalized,
		Valid:        info.Config.Valid,
		Status:       store.VoteInProgress,
		RevealCom: store.RevealCommittee{
			N:         info.RevealCom.N,
			Revealers: info.RevealCom.Revealers,
		},
	}
	if err := s.votes.InsertVote(ctx, vote); err != nil {
		return fmt.Errorf("unable to add voting contract %s: %w", addr, err)
	}

	s.logger.Info("Vote registered", "address", addr, "title", vote.Title)
	return nil
}

// FinalizeVote records the outcome of a finalized vote. An invalid vote
// fails without a tally; a valid one gets its status from the tally and
// its turnout against the governance pool.
func (s *Service) FinalizeVote(ctx context.Context, addr string) (store.VoteUpdate, error) {
	resp, err := chain.Query[voteInfoResponse](ctx, s.querier, addr, map[string]struct{}{"vote_info": {}})
	if err != nil {
		return store.VoteUpdate{}, fmt.Errorf("%w %s: %w", ErrContractQuery, addr, err)
	}

	cfg := resp.VoteInfo.Config
	if !cfg.Finalized {
		return store.VoteUpdate{}, fmt.Errorf("%w: %s", ErrNotFinalized, addr)
	}

	update := store.VoteUpdate{
		Finalized: cfg.Finalized,
		Valid:     cfg.Valid,
		Status:    store.VoteFailed,
	}

	if cfg.Valid {
		tally, err := chain.Query[tallyResponse](ctx, s.querier, addr, map[string]struct{}{"tally": {}})
		if err != nil {
			return store.VoteUpdate{}, fmt.Errorf("%w: tally %s: %w", ErrContractQuery, addr, err)
		}
		update.Status = Status(tally.Tally)

		locked, err := chain.Query[totalLockedResponse](ctx, s.querier, s.governancePool, map[string]struct{}{"total_locked": {}})
		if err != nil {
			return store.VoteUpdate{}, fmt.Errorf("%w: total_locked %s: %w", ErrContractQuery, s.governancePool, err)
		}
		update.VotingPercentage = turnout(tally.Tally, locked.TotalLocked.Amount)
		if update.VotingPercentage == nil {
			s.logger.Warn("Governance pool has nothing locked, turnout not recorded", "address", addr)
		}
	}

	if _, err := s.votes.UpdateVote(ctx, addr, update); err != nil {
		s.logger.Error("Failed to update vote", "address", addr, "error", err)
		return store.VoteUpdate{}, fmt.Errorf("%w %s: %w", ErrUpdate, addr, err)
	}

	s.logger.Info("Vote finalized", "address", addr, "status", update.Status)
	return update, nil
}

// Status is FAILED for a plain yes/no ballot where yes does not beat no,
// PASSED otherwise.
func Status(t Tally) string {
	if len(t.Choices) != 2 {
		return store.VotePassed
	}

	yes, no := -1, -1
	for i, c := range t.Choices {
		switch strings.ToLower(c) {
		case "yes":
			yes = i
		case "no":
			no = i
		}
	}
	if yes < 0 || no < 0 || yes >= len(t.Tally) || no >= len(t.Tally) {
		return store.VotePassed
	}

	if t.Tally[yes].LessThanOrEqual(t.Tally[no]) {
		return store.VoteFailed
	}
	return store.VotePassed
}

// turnout is the share of locked tokens that voted, in percent.
func turnout(t Tally, locked decimal.Decimal) *float64 {
	if locked.IsZero() {
		return nil
	}
	total := decimal.Zero
	for _, v := range t.Tally {
		total = total.Add(v)
	}
	pct := total.Div(locked).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return &pct
}
