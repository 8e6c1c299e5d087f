package ports

import (
	"context"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

// SessionRepository persists the client session per profile. Get returns
// nil, nil when the profile has no session.
type SessionRepository interface {
	Get(ctx context.Context, profile string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, profile string) error
}
