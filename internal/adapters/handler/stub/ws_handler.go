package stub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

type WSHandler struct {
	store          *Store
	hub            *Hub
	logger         *zap.Logger
	originPatterns []string
}

func NewWSHandler(store *Store, hub *Hub, logger *zap.Logger, originPatterns []string) *WSHandler {
	return &WSHandler{store: store, hub: hub, logger: logger, originPatterns: originPatterns}
}

// Watch streams vote updates for one poll until either side goes away.
// Anything the client sends is ignored.
func (h *WSHandler) Watch(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDParam(w, r)
	if !ok {
		return
	}
	if _, err := h.store.Poll(pollID, 0); err != nil {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	updates, unsubscribe := h.hub.Subscribe(pollID)
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("websocket write failed", zap.Int64("poll_id", pollID), zap.Error(err))
				}
				return
			}
		}
	}
}
