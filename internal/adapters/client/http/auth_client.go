package http

import (
	"context"
	"net/http"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	var token domain.Token
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   loginPath,
		body:   loginRequest{Email: email, Password: password},
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.Token, error) {
	var token domain.Token
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   registerPath,
		body:   registerRequest{Email: email, Password: password, Name: name},
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Refresh(ctx context.Context) (*domain.Token, error) {
	var token domain.Token
	if err := c.do(ctx, request{method: http.MethodPost, path: refreshPath, auth: true}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{method: http.MethodGet, path: mePath, auth: true}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
