package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

// UserMessage turns an error into what the person at the terminal should
// read. Transport details stay in the debug log.
func UserMessage(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		var b strings.Builder
		b.WriteString("please fix the following:")
		for _, field := range verr.FieldNames() {
			fmt.Fprintf(&b, "\n  %s: %s", field, verr.Fields[field])
		}
		return b.String()
	case errors.Is(err, domain.ErrSessionExpired):
		return "your session expired, run `pollctl login` again"
	case errors.Is(err, domain.ErrNotLoggedIn), errors.Is(err, domain.ErrUnauthorized):
		return "you need to be logged in, run `pollctl login`"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "you already voted on this poll"
	case errors.Is(err, domain.ErrInvalidOption):
		return "that option does not belong to this poll"
	case errors.Is(err, domain.ErrPollNotFound), errors.Is(err, domain.ErrNotFound):
		return "poll not found"
	case errors.Is(err, domain.ErrUnavailable):
		return "the polls service is unavailable, try again later"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return err.Error()
	}
}
