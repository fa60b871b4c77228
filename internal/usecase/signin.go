package usecase

import (
	"context"
	"log/slog"

	"tracker-client/internal/ports"
)

// SessionCommitter persists and publishes a session obtained from the gateway.
type SessionCommitter interface {
	Login(ctx context.Context, token, displayName string) error
}

// SignIn performs the network half of authentication and then commits the
// resulting session. The username becomes the display name.
type SignIn struct {
	Log      *slog.Logger
	Auth     ports.AuthClient
	Sessions SessionCommitter
}

func (s *SignIn) Login(ctx context.Context, username, password string) error {
	tok, err := s.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.Sessions.Login(ctx, tok, username)
}

// Register creates the account and signs in with the returned token.
func (s *SignIn) Register(ctx context.Context, username, password string) error {
	tok, err := s.Auth.Register(ctx, username, password)
	if err != nil {
		return err
	}
	s.Log.Info("account registered", slog.String("user", username))
	return s.Sessions.Login(ctx, tok, username)
}
