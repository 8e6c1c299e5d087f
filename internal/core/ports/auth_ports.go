package ports

import (
	"context"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.Token, error)
	Register(ctx context.Context, name, email, password string) (*domain.Token, error)
	Refresh(ctx context.Context) (*domain.Token, error)
	Me(ctx context.Context) (*domain.User, error)
}

// TokenProvider hands the REST client the bearer token for the current
// session. An empty token means the request goes out anonymously.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type LoginInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type AuthService interface {
	TokenProvider
	Login(ctx context.Context, input LoginInput) (*domain.Session, error)
	Register(ctx context.Context, input RegisterInput) (*domain.Session, error)
	Refresh(ctx context.Context) (*domain.Session, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
}
