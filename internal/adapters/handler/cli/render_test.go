package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

func fixedRenderer(out *bytes.Buffer) *renderer {
	r := newRenderer(out)
	r.now = func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderPoll(t *testing.T) {
	vote := int64(11)
	p := &domain.Poll{
		ID:          4,
		Title:       "Lunch",
		Description: "Where do we eat",
		CreatedAt:   time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC),
		Options: []domain.Option{
			{ID: 10, Text: "Pizza", VotesCount: 1500},
			{ID: 11, Text: "Sushi", VotesCount: 500},
		},
		TotalVotes: 2000,
		HasVoted:   true,
		UserVote:   &vote,
	}

	var out bytes.Buffer
	fixedRenderer(&out).poll(p, "Live")
	got := out.String()

	assert.Contains(t, got, "#4 Lunch  [Live]\n")
	assert.Contains(t, got, "created 2 hours ago · 2,000 votes")
	assert.Contains(t, got, "  [10] Pizza  ███████████████░░░░░  75%  (1,500)")
	assert.Contains(t, got, "* [11] Sushi  █████░░░░░░░░░░░░░░░  25%  (500)")
	assert.Contains(t, got, `you voted for "Sushi"`)
}

func TestRenderPollWithoutVotes(t *testing.T) {
	p := &domain.Poll{
		ID:        1,
		Title:     "Empty",
		CreatedAt: time.Date(2025, 5, 10, 11, 59, 0, 0, time.UTC),
		Options:   []domain.Option{{ID: 1, Text: "A"}, {ID: 2, Text: "B"}},
	}

	var out bytes.Buffer
	fixedRenderer(&out).poll(p, "")
	got := out.String()

	assert.Contains(t, got, "#1 Empty\n")
	assert.Contains(t, got, "0 votes")
	assert.Contains(t, got, "░░░░░░░░░░░░░░░░░░░░   0%")
	assert.NotContains(t, got, "you voted")
}

func TestRenderPollList(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	polls := []*domain.Poll{
		{ID: 1, Title: "Lunch", TotalVotes: 12345, CreatedAt: now.Add(-3 * 24 * time.Hour), HasVoted: true},
		{ID: 2, Title: "Offsite", CreatedAt: now.Add(-time.Minute)},
	}

	var out bytes.Buffer
	fixedRenderer(&out).pollList(polls)
	got := out.String()

	assert.Contains(t, got, "ID  TITLE")
	assert.Contains(t, got, "12,345")
	assert.Contains(t, got, "3 days ago")
	assert.Contains(t, got, "yes")

	out.Reset()
	fixedRenderer(&out).pollList(nil)
	assert.Equal(t, "no polls found\n", out.String())
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░░░░░░░░░░░", bar(0))
	assert.Equal(t, "██████████░░░░░░░░░░", bar(50))
	assert.Equal(t, "████████████████████", bar(100))
	assert.Equal(t, "████████████████████", bar(140))
}

func TestUserMessage(t *testing.T) {
	v := domain.NewValidationError()
	v.Add("title", "must be at least 3 characters")
	v.Add("options", "at least 2 options are required")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", v, "please fix the following:\n  options: at least 2 options are required\n  title: must be at least 3 characters"},
		{"expired", fmt.Errorf("%w: %w", domain.ErrSessionExpired, domain.ErrUnauthorized), "your session expired, run `pollctl login` again"},
		{"not logged in", domain.ErrNotLoggedIn, "you need to be logged in, run `pollctl login`"},
		{"already voted", fmt.Errorf("failed to vote: %w", domain.ErrAlreadyVoted), "you already voted on this poll"},
		{"bad option", domain.ErrInvalidOption, "that option does not belong to this poll"},
		{"missing poll", domain.ErrPollNotFound, "poll not found"},
		{"unavailable", domain.ErrUnavailable, "the polls service is unavailable, try again later"},
		{"canceled", context.Canceled, "interrupted"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
