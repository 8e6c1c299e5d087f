package stub

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

const subscriberBuffer = 16

type hubMsg interface{ isHubMsg() }

type subscribe struct {
	PollID int64
	ID     string
	Out    chan domain.UpdateMessage
}

type unsubscribe struct {
	PollID int64
	ID     string
}

type broadcast struct {
	Msg domain.UpdateMessage
}

type countSubscribers struct {
	PollID int64
	Reply  chan int
}

func (subscribe) isHubMsg()        {}
func (unsubscribe) isHubMsg()      {}
func (broadcast) isHubMsg()        {}
func (countSubscribers) isHubMsg() {}

// Hub fans vote updates out to every websocket watching the same poll. All
// subscriber state lives in the loop goroutine.
type Hub struct {
	inbox  chan hubMsg
	subs   map[int64]map[string]chan domain.UpdateMessage
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan hubMsg, 64),
		subs:   make(map[int64]map[string]chan domain.UpdateMessage),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

// Subscribe registers a listener for pollID. The returned channel is closed
// after cancel is called or the hub shuts down.
func (h *Hub) Subscribe(pollID int64) (<-chan domain.UpdateMessage, func()) {
	id := uuid.NewString()
	out := make(chan domain.UpdateMessage, subscriberBuffer)
	if !h.send(subscribe{PollID: pollID, ID: id, Out: out}) {
		close(out)
		return out, func() {}
	}
	return out, func() { h.send(unsubscribe{PollID: pollID, ID: id}) }
}

func (h *Hub) Broadcast(msg domain.UpdateMessage) {
	h.send(broadcast{Msg: msg})
}

// Subscribers reports how many listeners pollID currently has.
func (h *Hub) Subscribers(pollID int64) int {
	reply := make(chan int, 1)
	if !h.send(countSubscribers{PollID: pollID, Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	}
}

func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) send(m hubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			for _, subs := range h.subs {
				for _, out := range subs {
					close(out)
				}
			}
			clear(h.subs)
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case subscribe:
				if h.subs[msg.PollID] == nil {
					h.subs[msg.PollID] = make(map[string]chan domain.UpdateMessage)
				}
				h.subs[msg.PollID][msg.ID] = msg.Out

			case unsubscribe:
				if out, ok := h.subs[msg.PollID][msg.ID]; ok {
					close(out)
					delete(h.subs[msg.PollID], msg.ID)
					if len(h.subs[msg.PollID]) == 0 {
						delete(h.subs, msg.PollID)
					}
				}

			case broadcast:
				for id, out := range h.subs[msg.Msg.PollID] {
					select {
					case out <- msg.Msg:
					default:
						h.logger.Warn("dropping update for slow subscriber",
							zap.Int64("poll_id", msg.Msg.PollID), zap.String("subscriber", id))
					}
				}

			case countSubscribers:
				msg.Reply <- len(h.subs[msg.PollID])
			}
		}
	}
}
