package app

import (
	"context"
	"io"
	"log/slog"

	"tracker-client/internal/adapter/gateway"
	msql "tracker-client/internal/adapter/mysql"
	"tracker-client/internal/adapter/sqlite"
	"tracker-client/internal/config"
	"tracker-client/internal/ports"
	"tracker-client/internal/session"
	"tracker-client/internal/usecase"
)

// App wires the session store, session manager, gateway client and views.
type App struct {
	Log      *slog.Logger
	Config   config.Config
	Sessions *session.Manager
	Gateway  *gateway.Client
	SignIn   *usecase.SignIn

	closer io.Closer
}

// New opens the configured session store: MySQL when a DSN is configured,
// the local SQLite file otherwise.
func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	var (
		store  ports.SessionStore
		closer io.Closer
	)
	if cfg.Session.MySQLDSN != "" {
		st, err := msql.Open(ctx, cfg.Session.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		store, closer = st, st
		log.Debug("session store: mysql")
	} else {
		st, err := sqlite.Open(ctx, cfg.Session.Path, log)
		if err != nil {
			return nil, err
		}
		store, closer = st, st
		log.Debug("session store: sqlite", slog.String("path", cfg.Session.Path))
	}
	a := NewWithStore(log, cfg, store)
	a.closer = closer
	return a, nil
}

// NewWithStore wires an App around an already-open store.
func NewWithStore(log *slog.Logger, cfg config.Config, store ports.SessionStore) *App {
	mgr := session.NewManager(store, log)
	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, mgr, log)
	return &App{
		Log:      log,
		Config:   cfg,
		Sessions: mgr,
		Gateway:  gw,
		SignIn:   &usecase.SignIn{Log: log, Auth: gw.Auth(), Sessions: mgr},
	}
}

func (a *App) ProjectsView() *usecase.ProjectsView {
	return usecase.NewProjectsView(a.Gateway.Projects(), a.Log, a.Config.View.PageSize)
}

func (a *App) ProjectDetailsView() *usecase.ProjectDetailsView {
	return usecase.NewProjectDetailsView(a.Gateway.Tasks(), a.Gateway.Analytics(), a.Log, a.Config.View.PageSize)
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
