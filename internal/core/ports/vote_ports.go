package ports

import (
	"context"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type VoteAPI interface {
	Vote(ctx context.Context, pollID, optionID int64) (*domain.VoteResult, error)
}

type VoteInput struct {
	PollID   int64
	OptionID *int64 // nil when the viewer picked nothing
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.VoteResult, error)
}
