package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tracker-client/internal/domain"
)

// AuthAPI implements ports.AuthClient.
type AuthAPI struct{ c *Client }

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token via POST /auth/login.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (string, error) {
	return a.exchange(ctx, "auth.login", "/auth/login", username, password)
}

// Register creates an account via POST /auth/register and returns its token.
func (a *AuthAPI) Register(ctx context.Context, username, password string) (string, error) {
	return a.exchange(ctx, "auth.register", "/auth/register", username, password)
}

func (a *AuthAPI) exchange(ctx context.Context, op, path, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", fmt.Errorf("%s: %w", op, domain.ValidationError("username and password are required"))
	}
	var out tokenResponse
	err := a.c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   credentials{Username: username, Password: password},
		out:    &out,
		noAuth: true,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &domain.APIError{Kind: domain.ErrServer, Op: op, Err: errors.New("response carried no token")}
	}
	return out.Token, nil
}
