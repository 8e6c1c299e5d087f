package ports

import (
	"context"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type CreatePollInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

type ListPollsInput struct {
	Page   int
	Limit  int
	Search string
}

type PollAPI interface {
	List(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Mine(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Get(ctx context.Context, id int64) (*domain.Poll, error)
	Results(ctx context.Context, id int64) (*domain.Poll, error)
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id int64) (*domain.Poll, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	MyPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
}
