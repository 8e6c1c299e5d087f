package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

type voteService struct {
	api    ports.VoteAPI
	cache  *QueryCache
	ledger *VoteLedger
	logger *zap.Logger
}

func NewVoteService(api ports.VoteAPI, cache *QueryCache, ledger *VoteLedger, logger *zap.Logger) ports.VoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewVoteLedger()
	}
	return &voteService{
		api:    api,
		cache:  cache,
		ledger: ledger,
		logger: logger,
	}
}

// Vote submits a single vote. It is never retried; on failure the viewer's
// voted state is left as it was.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.VoteResult, error) {
	if input.PollID <= 0 {
		return nil, domain.ErrInvalidPollID
	}
	if input.OptionID == nil {
		v := domain.NewValidationError()
		v.Add("option", "select an option")
		return nil, v
	}
	if _, voted := s.ledger.Lookup(input.PollID); voted {
		return nil, domain.ErrAlreadyVoted
	}

	optionID := *input.OptionID
	result, err := s.api.Vote(ctx, input.PollID, optionID)
	if err != nil {
		s.logger.Warn("vote failed",
			zap.Int64("poll_id", input.PollID),
			zap.Int64("option_id", optionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to vote on poll %d: %w", input.PollID, err)
	}

	s.ledger.Record(input.PollID, optionID)
	s.cache.Invalidate(pollKey(input.PollID), pollResultsKey(input.PollID), "polls", "my-polls")

	s.logger.Info("vote recorded",
		zap.Int64("poll_id", input.PollID),
		zap.Int64("option_id", result.OptionID),
		zap.Int64("votes_count", result.VotesCount),
		zap.Int64("total_votes", result.TotalVotes),
	)
	return result, nil
}
