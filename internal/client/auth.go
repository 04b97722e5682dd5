package client

import (
	"context"
	"errors"
	"net/http"
)

var ErrEmptyToken = errors.New("login response carried no token")

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var res LoginResponse
	err := c.do(ctx, http.MethodPost, "/app/login", "", LoginRequest{Email: email, Password: password}, &res, nil)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, ErrEmptyToken
	}
	return &res, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/app/logout", token, nil, nil, nil)
}

func (c *Client) User(ctx context.Context, token string) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/app/user", token, nil, &res, nil); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) Collaborator(ctx context.Context, token string) (*Collaborator, error) {
	var res struct {
		Collaborator *Collaborator `json:"collaborator"`
	}
	if err := c.do(ctx, http.MethodGet, "/app/collaborator", token, nil, &res, nil); err != nil {
		return nil, err
	}
	if res.Collaborator == nil {
		return nil, errors.New("collaborator profile missing from response")
	}
	return res.Collaborator, nil
}
