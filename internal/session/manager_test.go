package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"tracker-client/internal/adapter/sqlite"
	"tracker-client/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginThenRestoreInFreshProcess(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	st, err := sqlite.Open(ctx, path, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	m := NewManager(st, testLogger())
	if s := m.Restore(ctx); s.Authenticated() {
		t.Fatalf("expected unauthenticated on first start, got %+v", s)
	}
	if err := m.Login(ctx, "tok-123", "alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_ = st.Close()

	// Simulate a new process: new store handle, new manager.
	st2, err := sqlite.Open(ctx, path, testLogger())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = st2.Close() })
	m2 := NewManager(st2, testLogger())
	got := m2.Restore(ctx)
	want := domain.Session{Token: "tok-123", DisplayName: "alice"}
	if got != want {
		t.Fatalf("restore: got %+v want %+v", got, want)
	}
	if tok, ok := m2.Token(); !ok || tok != "tok-123" {
		t.Fatalf("Token: got %q %v", tok, ok)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	m := NewManager(store, testLogger())
	m.Restore(ctx)
	if err := m.Login(ctx, "t", "bob"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var published []domain.Session
	m.Subscribe(func(s domain.Session) { published = append(published, s) })

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if len(published) != 1 || published[0].Authenticated() {
		t.Fatalf("expected exactly one empty-session publish, got %+v", published)
	}

	fresh := NewManager(store, testLogger())
	if s := fresh.Restore(ctx); s.Authenticated() {
		t.Fatalf("expected unauthenticated after logout, got %+v", s)
	}
}

func TestLogoutBeforeRestoreClearsStore(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	if err := store.Set(ctx, domain.Session{Token: "t", DisplayName: "bob"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := NewManager(store, testLogger())
	called := false
	m.Subscribe(func(domain.Session) { called = true })

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s, _ := store.Get(ctx); s.Authenticated() {
		t.Fatalf("stored session must be cleared, got %+v", s)
	}
	if called {
		t.Fatal("nothing was signed in, so nothing is published")
	}
	if s := m.Restore(ctx); s.Authenticated() {
		t.Fatalf("expected unauthenticated after logout, got %+v", s)
	}
}

func TestLoginRequiresToken(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	m := NewManager(store, testLogger())
	called := false
	m.Subscribe(func(domain.Session) { called = true })

	err := m.Login(ctx, "  ", "alice")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("subscriber must not be notified on rejected login")
	}
	if s, _ := store.Get(ctx); s.Authenticated() {
		t.Fatalf("store must stay empty, got %+v", s)
	}
}

func TestLoginStoreFailureDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	m := NewManager(&MemoryStore{Fail: boom}, testLogger())
	called := false
	m.Subscribe(func(domain.Session) { called = true })

	if err := m.Login(ctx, "t", "alice"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if called || m.Current().Authenticated() {
		t.Fatal("failed login must not change the current session")
	}
}

func TestRestoreNeverFails(t *testing.T) {
	m := NewManager(&MemoryStore{Fail: errors.New("corrupt")}, testLogger())
	if s := m.Restore(context.Background()); s.Authenticated() {
		t.Fatalf("expected empty session, got %+v", s)
	}
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&MemoryStore{}, testLogger())

	var order []string
	unsubA := m.Subscribe(func(domain.Session) { order = append(order, "a") })
	m.Subscribe(func(s domain.Session) {
		order = append(order, "b:"+s.DisplayName)
	})

	_ = m.Login(ctx, "t", "carol")
	unsubA()
	unsubA()
	_ = m.Logout(ctx)

	want := []string{"a", "b:carol", "b:"}
	if len(order) != len(want) {
		t.Fatalf("got %v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v want %v", order, want)
		}
	}
}
