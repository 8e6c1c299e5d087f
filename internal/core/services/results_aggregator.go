package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const DefaultRefreshInterval = 5 * time.Second

const refreshKey = "results"

var errAggregatorClosed = errors.New("results aggregator closed")

// ResultsAggregator owns the displayed snapshot of one poll. It pulls full
// results on a fixed interval and whenever Trigger is called; pushed deltas
// are never merged field by field. Each fetch is numbered when issued and a
// response only replaces the snapshot if no later fetch was applied first.
type ResultsAggregator struct {
	pollID   int64
	fetcher  ports.ResultsFetcher
	ledger   *VoteLedger
	interval time.Duration
	logger   *zap.Logger

	group   singleflight.Group
	trigger chan struct{}

	// notifyMu serializes apply+notify so listeners see snapshots in order.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	issued    uint64
	applied   uint64
	snapshot  *domain.Poll
	lastErr   error
	listeners []func(*domain.Poll)
	started   bool
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type AggregatorOption func(*ResultsAggregator)

func WithRefreshInterval(d time.Duration) AggregatorOption {
	return func(a *ResultsAggregator) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithAggregatorLogger(l *zap.Logger) AggregatorOption {
	return func(a *ResultsAggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithVoteLedger(l *VoteLedger) AggregatorOption {
	return func(a *ResultsAggregator) {
		if l != nil {
			a.ledger = l
		}
	}
}

func NewResultsAggregator(pollID int64, fetcher ports.ResultsFetcher, opts ...AggregatorOption) *ResultsAggregator {
	ctx, cancel := context.WithCancel(context.Background())
	a := &ResultsAggregator{
		pollID:   pollID,
		fetcher:  fetcher,
		ledger:   NewVoteLedger(),
		interval: DefaultRefreshInterval,
		logger:   zap.NewNop(),
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.Int64("poll_id", pollID))
	return a
}

// OnChange registers fn to receive every newly applied snapshot.
func (a *ResultsAggregator) OnChange(fn func(*domain.Poll)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Start fetches immediately and then keeps pulling in the background.
func (a *ResultsAggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return
	}
	a.started = true
	go a.loop()
}

// Trigger asks for a refetch. Triggers that arrive while a fetch is running
// collapse into one follow-up fetch.
func (a *ResultsAggregator) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches now and returns the effective snapshot afterwards.
// Concurrent callers share one request.
func (a *ResultsAggregator) Refresh(ctx context.Context) (*domain.Poll, error) {
	return a.refresh(ctx)
}

// RefreshAfterWrite is Refresh for callers that just changed server state:
// it never joins a pull issued before the write, so the returned snapshot
// reflects it.
func (a *ResultsAggregator) RefreshAfterWrite(ctx context.Context) (*domain.Poll, error) {
	a.group.Forget(refreshKey)
	return a.refresh(ctx)
}

func (a *ResultsAggregator) refresh(ctx context.Context) (*domain.Poll, error) {
	ch := a.group.DoChan(refreshKey, func() (any, error) {
		return nil, a.fetch()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return a.Snapshot(), nil
	}
}

// Snapshot returns a copy of the effective poll, or nil before the first
// successful fetch.
func (a *ResultsAggregator) Snapshot() *domain.Poll {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Clone()
}

// LastError is the error of the most recent failed fetch, cleared by the
// next successful one.
func (a *ResultsAggregator) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Close stops pulling. Responses still in flight are discarded and no
// listener runs after Close returns.
func (a *ResultsAggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	started := a.started
	a.mu.Unlock()

	a.cancel()
	if started {
		<-a.done
	}

	// Wait out a notification that may be running on a Refresh caller.
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
}

func (a *ResultsAggregator) loop() {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.refreshInBackground()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.refreshInBackground()
		case <-a.trigger:
			a.refreshInBackground()
		}
	}
}

func (a *ResultsAggregator) refreshInBackground() {
	if _, err := a.Refresh(a.ctx); err != nil && a.ctx.Err() == nil {
		a.logger.Warn("results refresh failed", zap.Error(err))
	}
}

func (a *ResultsAggregator) fetch() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errAggregatorClosed
	}
	a.issued++
	seq := a.issued
	a.mu.Unlock()

	poll, err := a.fetcher.Results(a.ctx, a.pollID)
	if err != nil {
		a.mu.Lock()
		a.lastErr = err
		a.mu.Unlock()
		return err
	}

	a.apply(seq, poll)
	return nil
}

func (a *ResultsAggregator) apply(seq uint64, poll *domain.Poll) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if a.closed || seq <= a.applied {
		a.mu.Unlock()
		a.logger.Debug("discarding stale results", zap.Uint64("seq", seq))
		return
	}
	if a.snapshot != nil && !a.snapshot.SameOptions(poll) {
		a.mu.Unlock()
		a.logger.Warn("discarding results", zap.Error(domain.ErrOptionsChanged), zap.Uint64("seq", seq))
		return
	}
	if err := poll.CheckTotals(); err != nil {
		a.logger.Warn("inconsistent results from server", zap.Error(err))
	}

	a.ledger.Apply(poll)
	a.applied = seq
	a.snapshot = poll
	a.lastErr = nil
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(poll.Clone())
	}
}
