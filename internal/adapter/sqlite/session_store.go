package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tracker-client/internal/domain"
)

// sessionKey is the well-known name of the one persisted session record.
const sessionKey = "current"

// SessionStore implements ports.SessionStore on a local SQLite file.
type SessionStore struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates (if needed) and opens the session database at path.
func Open(ctx context.Context, path string, log *slog.Logger) (*SessionStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	const ddl = `CREATE TABLE IF NOT EXISTS sessions (
	name TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	display_name TEXT NOT NULL,
	updated_at_unixms INTEGER NOT NULL
);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, err
	}
	return &SessionStore{db: db, log: log}, nil
}

// Get returns the stored session, or the empty session if none is stored.
func (s *SessionStore) Get(ctx context.Context) (domain.Session, error) {
	var out domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, display_name FROM sessions WHERE name = ?`, sessionKey,
	).Scan(&out.Token, &out.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, err
	}
	return out.Normalize(), nil
}

func (s *SessionStore) Set(ctx context.Context, sess domain.Session) error {
	if !sess.Authenticated() {
		return s.Clear(ctx)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions(name, token, display_name, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		sessionKey, sess.Token, sess.DisplayName, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return err
	}
	s.log.Debug("sqlite session stored", slog.String("user", sess.DisplayName))
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, sessionKey); err != nil {
		return err
	}
	s.log.Debug("sqlite session cleared")
	return nil
}

func (s *SessionStore) Close() error { return s.db.Close() }
