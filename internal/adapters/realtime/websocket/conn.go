package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

type conn struct {
	ws       *websocket.Conn
	stop     chan struct{}
	stopOnce sync.Once
}

// Read returns the next data frame. Text and binary frames are both handed
// up; the caller decides whether the payload makes sense.
func (c *conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *conn) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}

func (c *conn) heartbeat(interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := c.ws.Ping(ctx)
			cancel()
			if err != nil {
				logger.Warn("ping failed, dropping connection", zap.Error(err))
				_ = c.ws.CloseNow()
				return
			}
		}
	}
}
