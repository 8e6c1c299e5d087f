package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

type ChannelStatus int32

const (
	StatusIdle ChannelStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusFailed
	StatusClosed
)

func (s ChannelStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("ChannelStatus(%d)", int32(s))
	}
}

// ReconnectPolicy: the k-th consecutive failure waits BaseDelay * 2^(k-1);
// after MaxAttempts failures in a row the channel gives up for good.
type ReconnectPolicy struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{BaseDelay: time.Second, MaxAttempts: 5}
}

func (p ReconnectPolicy) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()

	attempts := p.MaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return backoff.WithMaxRetries(exp, uint64(attempts))
}

// PollChannel keeps one live update connection for a poll. Everything it does
// (dialing, reading frames, waiting out backoff, invoking the callback)
// happens on a single goroutine, so updates are delivered in arrival order.
type PollChannel struct {
	pollID   int64
	id       uuid.UUID
	dialer   ports.ChannelDialer
	onUpdate func(domain.UpdateMessage)
	policy   ReconnectPolicy
	logger   *zap.Logger
	after    func(time.Duration) <-chan time.Time

	status atomic.Int32

	mu      sync.Mutex
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

type ChannelOption func(*PollChannel)

func WithReconnectPolicy(p ReconnectPolicy) ChannelOption {
	return func(c *PollChannel) { c.policy = p }
}

func WithChannelLogger(l *zap.Logger) ChannelOption {
	return func(c *PollChannel) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewPollChannel(pollID int64, dialer ports.ChannelDialer, onUpdate func(domain.UpdateMessage), opts ...ChannelOption) *PollChannel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &PollChannel{
		pollID:   pollID,
		id:       uuid.New(),
		dialer:   dialer,
		onUpdate: onUpdate,
		policy:   DefaultReconnectPolicy(),
		logger:   zap.NewNop(),
		after:    time.After,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.Int64("poll_id", pollID), zap.Stringer("subscription", c.id))
	return c
}

// Start connects in the background. It is a no-op after the first call or
// after Close.
func (c *PollChannel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	go c.run()
}

// Close tears the channel down: the pending backoff timer and live
// connection are cancelled and the callback is never invoked again once
// Close returns. It must not be called from the update callback.
func (c *PollChannel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	c.cancel()
	if started {
		<-c.done
	} else {
		close(c.done)
	}
	c.setStatus(StatusClosed)
	c.logger.Debug("channel closed")
}

func (c *PollChannel) Status() ChannelStatus {
	return ChannelStatus(c.status.Load())
}

func (c *PollChannel) Connected() bool {
	return c.Status() == StatusConnected
}

// Done is closed when the background goroutine exits, either because Close
// was called or because reconnection gave up.
func (c *PollChannel) Done() <-chan struct{} {
	return c.done
}

func (c *PollChannel) setStatus(s ChannelStatus) {
	c.status.Store(int32(s))
}

func (c *PollChannel) run() {
	defer close(c.done)

	b := c.policy.newBackOff()
	failures := 0

	for {
		if failures == 0 {
			c.setStatus(StatusConnecting)
		} else {
			c.setStatus(StatusReconnecting)
		}

		conn, err := c.dialer.Dial(c.ctx, c.pollID)
		if err == nil {
			b.Reset()
			failures = 0
			c.setStatus(StatusConnected)
			c.logger.Info("channel connected")

			err = c.readLoop(conn)
			if closeErr := conn.Close(); closeErr != nil {
				c.logger.Debug("closing connection", zap.Error(closeErr))
			}
		}
		if c.ctx.Err() != nil {
			return
		}

		failures++
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			c.setStatus(StatusFailed)
			c.logger.Error("max reconnection attempts reached",
				zap.Int("attempts", c.policy.MaxAttempts),
				zap.Error(err),
			)
			return
		}

		c.setStatus(StatusReconnecting)
		c.logger.Warn("channel disconnected, reconnecting",
			zap.Int("attempt", failures),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-c.ctx.Done():
			return
		case <-c.after(delay):
		}
	}
}

func (c *PollChannel) readLoop(conn ports.ChannelConn) error {
	for {
		data, err := conn.Read(c.ctx)
		if err != nil {
			return err
		}

		msg, err := decodeUpdate(data, c.pollID)
		if err != nil {
			c.logger.Warn("dropping malformed update", zap.Error(err), zap.ByteString("payload", data))
			continue
		}

		if c.ctx.Err() != nil {
			return c.ctx.Err()
		}
		c.onUpdate(msg)
	}
}

func decodeUpdate(data []byte, pollID int64) (domain.UpdateMessage, error) {
	var msg domain.UpdateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.UpdateMessage{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return domain.UpdateMessage{}, err
	}
	if msg.PollID != pollID {
		return domain.UpdateMessage{}, fmt.Errorf("update for poll %d on channel for poll %d", msg.PollID, pollID)
	}
	return msg, nil
}
