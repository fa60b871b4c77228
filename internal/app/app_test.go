package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"tracker-client/internal/config"
	"tracker-client/internal/gatewaytest"
)

func TestApp_LoginPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	srv := gatewaytest.New(t)
	srv.AddUser("alice", "pw")
	p := srv.SeedProject("alice", "Roadmap", "")
	srv.SeedTask(p.ID, "draft", false)

	cfg := config.Default()
	cfg.Gateway.BaseURL = srv.URL()
	cfg.Session.Path = filepath.Join(t.TempDir(), "session.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(ctx, log, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Sessions.Restore(ctx)
	if err := a.SignIn.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_ = a.Close()

	b, err := New(ctx, log, cfg)
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	s := b.Sessions.Restore(ctx)
	if !s.Authenticated() || s.DisplayName != "alice" {
		t.Fatalf("session not restored: %+v", s)
	}

	// The restored token authenticates gateway calls.
	pv := b.ProjectsView()
	if err := pv.Activate(ctx, s.DisplayName); err != nil {
		t.Fatalf("projects: %v", err)
	}
	if st := pv.State(); len(st.Projects) != 1 {
		t.Fatalf("unexpected projects: %+v", st)
	}
	dv := b.ProjectDetailsView()
	if err := dv.Activate(ctx, p.ID); err != nil {
		t.Fatalf("details: %v", err)
	}
	if st := dv.State(); len(st.Tasks) != 1 || !st.ProgressKnown {
		t.Fatalf("unexpected details: %+v", st)
	}

	if err := b.Sessions.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := pv.Reload(ctx); err == nil {
		t.Fatal("expected unauthenticated reload to fail")
	}
}
