package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

func (c *Client) List(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	return c.listPolls(ctx, pollsPath, input)
}

func (c *Client) Mine(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	return c.listPolls(ctx, myPollsPath, input)
}

func (c *Client) listPolls(ctx context.Context, path string, input ports.ListPollsInput) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  listQuery(input),
		auth:   true,
	}, &polls)
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// listQuery translates page/limit into the server's skip/limit window.
func listQuery(input ports.ListPollsInput) url.Values {
	q := url.Values{}
	if input.Search != "" {
		q.Set("search", input.Search)
	}
	if input.Limit > 0 {
		q.Set("limit", strconv.Itoa(input.Limit))
		if input.Page > 1 {
			q.Set("skip", strconv.Itoa((input.Page-1)*input.Limit))
		}
	}
	return q
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.Poll, error) {
	var poll domain.Poll
	if err := c.do(ctx, request{method: http.MethodGet, path: pollPath(id), auth: true}, &poll); err != nil {
		return nil, pollError(err)
	}
	return &poll, nil
}

func (c *Client) Results(ctx context.Context, id int64) (*domain.Poll, error) {
	var poll domain.Poll
	if err := c.do(ctx, request{method: http.MethodGet, path: pollResultsPath(id), auth: true}, &poll); err != nil {
		return nil, pollError(err)
	}
	return &poll, nil
}

func (c *Client) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	var poll domain.Poll
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pollsPath,
		body:   input,
		auth:   true,
	}, &poll)
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

func (c *Client) Vote(ctx context.Context, pollID, optionID int64) (*domain.VoteResult, error) {
	var result domain.VoteResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   votePath(pollID),
		body:   voteRequest{OptionID: optionID},
		auth:   true,
	}, &result)
	if err != nil {
		return nil, voteError(err)
	}
	return &result, nil
}

func pollError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrPollNotFound, err)
	}
	return err
}

func voteError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	detail := strings.ToLower(apiErr.Detail)
	switch {
	case apiErr.Status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrPollNotFound, err)
	case apiErr.Status == http.StatusBadRequest && strings.Contains(detail, "already voted"):
		apiErr.kind = domain.ErrAlreadyVoted
	case apiErr.Status == http.StatusBadRequest && strings.Contains(detail, "option"):
		apiErr.kind = domain.ErrInvalidOption
	}
	return err
}
