package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Version int
	Name    string
}

// List returns the embedded migrations in version order.
func List() ([]Migration, error) {
	files, err := fs.Glob(migrationsFS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(files))
	seen := make(map[int]string, len(files))
	for _, f := range files {
		name := path.Base(f)
		ver, err := versionOf(name)
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
		if prev, dup := seen[ver]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", prev, name, ver)
		}
		seen[ver] = name
		out = append(out, Migration{Version: ver, Name: name})
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// Run brings db up to the latest embedded schema and returns how many
// migrations were applied. Each file is sent as one batch, so files with
// several statements need a DSN with multiStatements=true.
func Run(ctx context.Context, db *sql.DB, log *slog.Logger) (int, error) {
	l := ledger{db: db}
	if err := l.init(ctx); err != nil {
		return 0, fmt.Errorf("migration ledger: %w", err)
	}
	all, err := List()
	if err != nil {
		return 0, err
	}
	applied, err := l.applied(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration ledger: %w", err)
	}
	todo, err := pending(all, applied)
	if err != nil {
		return 0, err
	}
	if len(todo) == 0 {
		log.Debug("schema up to date", slog.Int("migrations", len(all)))
		return 0, nil
	}

	for i, m := range todo {
		script, err := fs.ReadFile(migrationsFS, "sql/"+m.Name)
		if err != nil {
			return i, err
		}
		start := time.Now()
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return i, fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if err := l.record(ctx, m); err != nil {
			return i, fmt.Errorf("record %s: %w", m.Name, err)
		}
		log.Info("migration applied",
			slog.Int("version", m.Version),
			slog.String("file", m.Name),
			slog.Duration("dur", time.Since(start)),
		)
	}
	return len(todo), nil
}

// pending returns the migrations missing from applied (version -> file name).
// A recorded version whose file name no longer matches is an error: the
// embedded history was rewritten after it reached this database.
func pending(all []Migration, applied map[int]string) ([]Migration, error) {
	var todo []Migration
	for _, m := range all {
		name, ok := applied[m.Version]
		switch {
		case !ok:
			todo = append(todo, m)
		case name != m.Name:
			return nil, fmt.Errorf("migration %d was applied as %q but is now %q", m.Version, name, m.Name)
		}
	}
	return todo, nil
}

// ledger is the table recording which migrations ran.
type ledger struct{ db *sql.DB }

func (l ledger) init(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tracker_schema_migrations (
        version BIGINT PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        applied_at DATETIME(6) NOT NULL
    ) ENGINE=InnoDB`)
	return err
}

func (l ledger) applied(ctx context.Context) (map[int]string, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT version, name FROM tracker_schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]string)
	for rows.Next() {
		var (
			v    int
			name string
		)
		if err := rows.Scan(&v, &name); err != nil {
			return nil, err
		}
		out[v] = name
	}
	return out, rows.Err()
}

func (l ledger) record(ctx context.Context, m Migration) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO tracker_schema_migrations(version, name, applied_at) VALUES(?, ?, ?)",
		m.Version, m.Name, time.Now().UTC())
	return err
}

// versionOf reads the positive numeric prefix of names like 0001_description.sql.
func versionOf(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok || prefix == "" {
		return 0, errors.New("name must look like 0001_description.sql")
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("version prefix %q is not a positive number", prefix)
	}
	return v, nil
}
