package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"tracker-client/internal/domain"
	"tracker-client/internal/migrate"
)

const sessionKey = "current"

// SessionStore implements ports.SessionStore on a MySQL table, for clients
// that keep their session on a shared server instead of a local file.
type SessionStore struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects using dsn and applies pending migrations.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func Open(ctx context.Context, dsn string, log *slog.Logger) (*SessionStore, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := migrate.Run(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	return &SessionStore{db: db, log: log}, nil
}

func (s *SessionStore) Get(ctx context.Context) (domain.Session, error) {
	var out domain.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT token, display_name FROM tracker_sessions WHERE name = ?", sessionKey,
	).Scan(&out.Token, &out.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, err
	}
	return out.Normalize(), nil
}

// Set upserts the session row.
func (s *SessionStore) Set(ctx context.Context, sess domain.Session) error {
	if !sess.Authenticated() {
		return s.Clear(ctx)
	}
	const q = `
INSERT INTO tracker_sessions
  (name, token, display_name, updated_at)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  token=VALUES(token),
  display_name=VALUES(display_name),
  updated_at=VALUES(updated_at);
`
	if _, err := s.db.ExecContext(ctx, q, sessionKey, sess.Token, sess.DisplayName, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Debug("mysql session stored", slog.String("user", sess.DisplayName))
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tracker_sessions WHERE name = ?", sessionKey); err != nil {
		return err
	}
	s.log.Debug("mysql session cleared")
	return nil
}

// Close closes the underlying DB.
func (s *SessionStore) Close() error { return s.db.Close() }
