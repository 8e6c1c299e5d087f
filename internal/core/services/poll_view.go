package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

type PollViewDeps struct {
	Results ports.ResultsFetcher
	Dialer  ports.ChannelDialer
	Votes   ports.VoteService
	Ledger  *VoteLedger
	Logger  *zap.Logger
}

type PollViewConfig struct {
	RefreshInterval time.Duration
	Reconnect       ReconnectPolicy
}

// PollView is the live detail view of one poll: exactly one update channel
// and one results aggregator, created on Mount and torn down on Unmount.
type PollView struct {
	pollID  int64
	votes   ports.VoteService
	logger  *zap.Logger
	channel *PollChannel
	results *ResultsAggregator

	live      atomic.Bool
	mountOnce sync.Once
	closeOnce sync.Once
}

func NewPollView(pollID int64, deps PollViewDeps, cfg PollViewConfig) *PollView {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Reconnect == (ReconnectPolicy{}) {
		cfg.Reconnect = DefaultReconnectPolicy()
	}

	v := &PollView{
		pollID: pollID,
		votes:  deps.Votes,
		logger: logger.With(zap.Int64("poll_id", pollID)),
	}
	v.results = NewResultsAggregator(pollID, deps.Results,
		WithRefreshInterval(cfg.RefreshInterval),
		WithAggregatorLogger(logger),
		WithVoteLedger(deps.Ledger),
	)
	v.channel = NewPollChannel(pollID, deps.Dialer, v.handleUpdate,
		WithReconnectPolicy(cfg.Reconnect),
		WithChannelLogger(logger),
	)
	return v
}

func (v *PollView) handleUpdate(msg domain.UpdateMessage) {
	v.live.Store(true)
	v.logger.Debug("update received",
		zap.Int64("option_id", msg.OptionID),
		zap.Int64("votes_count", msg.VotesCount),
		zap.Int64("total_votes", msg.TotalVotes),
	)
	v.results.Trigger()
}

// OnChange registers fn for every new effective snapshot. Register before
// Mount to see the first one.
func (v *PollView) OnChange(fn func(*domain.Poll)) {
	v.results.OnChange(fn)
}

func (v *PollView) Mount() {
	v.mountOnce.Do(func() {
		v.results.Start()
		v.channel.Start()
	})
}

// Unmount closes the channel before the aggregator so a late update can't
// trigger a fetch nobody will see.
func (v *PollView) Unmount() {
	v.closeOnce.Do(func() {
		v.channel.Close()
		v.results.Close()
	})
}

func (v *PollView) Snapshot() *domain.Poll {
	return v.results.Snapshot()
}

func (v *PollView) Refresh(ctx context.Context) (*domain.Poll, error) {
	return v.results.Refresh(ctx)
}

func (v *PollView) Connected() bool {
	return v.channel.Connected()
}

func (v *PollView) ChannelStatus() ChannelStatus {
	return v.channel.Status()
}

// Live reports whether at least one pushed update reached this view.
func (v *PollView) Live() bool {
	return v.live.Load()
}

func (v *PollView) LastError() error {
	return v.results.LastError()
}

// Vote submits the viewer's choice and pulls fresh results on success.
func (v *PollView) Vote(ctx context.Context, optionID *int64) (*domain.VoteResult, error) {
	result, err := v.votes.Vote(ctx, ports.VoteInput{PollID: v.pollID, OptionID: optionID})
	if err != nil {
		return nil, err
	}
	if _, err := v.results.RefreshAfterWrite(ctx); err != nil {
		v.logger.Warn("refresh after vote failed", zap.Error(err))
	}
	return result, nil
}
