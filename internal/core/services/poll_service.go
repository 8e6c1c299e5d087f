package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type pollService struct {
	api    ports.PollAPI
	cache  *QueryCache
	ledger *VoteLedger
	logger *zap.Logger
}

func NewPollService(api ports.PollAPI, cache *QueryCache, ledger *VoteLedger, logger *zap.Logger) ports.PollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewVoteLedger()
	}
	return &pollService{
		api:    api,
		cache:  cache,
		ledger: ledger,
		logger: logger,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	if err := ValidateCreatePoll(input); err != nil {
		return nil, err
	}

	poll, err := s.api.Create(ctx, NormalizeCreatePoll(input))
	if err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	s.cache.Invalidate("polls", "my-polls")
	s.logger.Info("poll created", zap.Int64("poll_id", poll.ID), zap.Int("options", len(poll.Options)))
	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidPollID
	}

	key := pollKey(id)
	if cached, ok := s.cache.Get(key); ok {
		poll := cached.(*domain.Poll).Clone()
		s.ledger.Apply(poll)
		return poll, nil
	}

	poll, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll %d: %w", id, err)
	}
	s.ledger.Apply(poll)
	s.cache.Set(key, poll.Clone())
	return poll, nil
}

func (s *pollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	return s.list(ctx, "polls", input, s.api.List)
}

func (s *pollService) MyPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	return s.list(ctx, "my-polls", input, s.api.Mine)
}

type listFunc func(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error)

func (s *pollService) list(ctx context.Context, scope string, input ports.ListPollsInput, fetch listFunc) ([]*domain.Poll, error) {
	input = normalizeListInput(input)
	key := fmt.Sprintf("%s:%d:%d:%s", scope, input.Page, input.Limit, input.Search)

	if cached, ok := s.cache.Get(key); ok {
		return s.cloneAll(cached.([]*domain.Poll)), nil
	}

	polls, err := fetch(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", scope, err)
	}
	for _, p := range polls {
		s.ledger.Apply(p)
	}
	s.cache.Set(key, s.cloneAll(polls))
	return polls, nil
}

func (s *pollService) cloneAll(polls []*domain.Poll) []*domain.Poll {
	out := make([]*domain.Poll, len(polls))
	for i, p := range polls {
		out[i] = p.Clone()
		s.ledger.Apply(out[i])
	}
	return out
}

func normalizeListInput(input ports.ListPollsInput) ports.ListPollsInput {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = defaultPageSize
	}
	if input.Limit > maxPageSize {
		input.Limit = maxPageSize
	}
	return input
}
