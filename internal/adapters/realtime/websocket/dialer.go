package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const (
	DefaultPathTemplate = "/polls/ws/{id}"
	defaultReadLimit    = 32 << 10
	defaultDialTimeout  = 10 * time.Second
)

// Dialer opens the per-poll update websocket.
type Dialer struct {
	baseURL      *url.URL
	pathTemplate string
	tokens       ports.TokenProvider
	httpClient   *http.Client
	dialTimeout  time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
}

type Option func(*Dialer)

func WithTokenProvider(tp ports.TokenProvider) Option {
	return func(d *Dialer) { d.tokens = tp }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(d *Dialer) { d.httpClient = hc }
}

// WithPingInterval makes every connection ping the server on the interval
// and drop itself when a ping goes unanswered. Zero disables pings.
func WithPingInterval(interval time.Duration) Option {
	return func(d *Dialer) { d.pingInterval = interval }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dialer) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDialer(baseURL, pathTemplate string, opts ...Option) (*Dialer, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid websocket base url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("invalid websocket base url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	if pathTemplate == "" {
		pathTemplate = DefaultPathTemplate
	}
	if !strings.Contains(pathTemplate, "{id}") {
		return nil, fmt.Errorf("websocket path %q has no {id} placeholder", pathTemplate)
	}

	d := &Dialer{
		baseURL:      u,
		pathTemplate: pathTemplate,
		dialTimeout:  defaultDialTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dialer) URL(pollID int64) string {
	path := strings.ReplaceAll(d.pathTemplate, "{id}", strconv.FormatInt(pollID, 10))
	return d.baseURL.JoinPath(path).String()
}

func (d *Dialer) Dial(ctx context.Context, pollID int64) (ports.ChannelConn, error) {
	header := http.Header{}
	if d.tokens != nil {
		// The update stream is public; a token only helps servers that want one.
		if token, err := d.tokens.AccessToken(ctx); err == nil && token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	target := d.URL(pollID)
	ws, resp, err := websocket.Dial(dialCtx, target, &websocket.DialOptions{
		HTTPHeader: header,
		HTTPClient: d.httpClient,
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: handshake status %d: %w", target, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	ws.SetReadLimit(defaultReadLimit)

	c := &conn{ws: ws, stop: make(chan struct{})}
	if d.pingInterval > 0 {
		go c.heartbeat(d.pingInterval, d.logger.With(zap.Int64("poll_id", pollID)))
	}
	return c, nil
}
