package ports

import (
	"context"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

// ChannelConn is one live push connection. Read blocks until a frame arrives,
// the connection drops, or ctx is done.
type ChannelConn interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

type ChannelDialer interface {
	Dial(ctx context.Context, pollID int64) (ChannelConn, error)
}

// ResultsFetcher is the pull side of the live results path.
type ResultsFetcher interface {
	Results(ctx context.Context, id int64) (*domain.Poll, error)
}
