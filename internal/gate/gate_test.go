package gate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"tracker-client/internal/domain"
	"tracker-client/internal/session"
)

var (
	anon   = domain.Session{}
	authed = domain.Session{Token: "t", DisplayName: "alice"}
	// Half-populated sessions are not authenticated.
	tokenOnly = domain.Session{Token: "t"}
	nameOnly  = domain.Session{DisplayName: "alice"}
)

func TestCanEnter(t *testing.T) {
	cases := []struct {
		name string
		s    domain.Session
		kind RouteKind
		want Decision
	}{
		{"public/anon", anon, Public, Decision{Allow: true}},
		{"public/authed", authed, Public, Decision{Allow: true}},
		{"authonly/anon", anon, AuthOnly, Decision{Allow: true}},
		{"authonly/authed", authed, AuthOnly, Decision{Redirect: ProjectsPath}},
		{"protected/anon", anon, Protected, Decision{Redirect: AuthPath}},
		{"protected/authed", authed, Protected, Decision{Allow: true}},
		{"protected/token-only", tokenOnly, Protected, Decision{Redirect: AuthPath}},
		{"protected/name-only", nameOnly, Protected, Decision{Redirect: AuthPath}},
		{"authonly/token-only", tokenOnly, AuthOnly, Decision{Allow: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEnter(tc.s, tc.kind); got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestCanEnter_ProtectedIffAuthenticated(t *testing.T) {
	for _, s := range []domain.Session{anon, authed, tokenOnly, nameOnly, {Token: " ", DisplayName: " "}} {
		if CanEnter(s, Protected).Allow != s.Authenticated() {
			t.Fatalf("Protected allow mismatch for %+v", s)
		}
		if CanEnter(s, AuthOnly).Allow == s.Authenticated() {
			t.Fatalf("AuthOnly allow mismatch for %+v", s)
		}
		if !CanEnter(s, Public).Allow {
			t.Fatalf("Public must always allow, %+v", s)
		}
	}
}

func TestClassifyAndNavigate(t *testing.T) {
	cases := []struct {
		path   string
		kind   RouteKind
		known  bool
		anon   Decision
		authed Decision
	}{
		{"/", Public, true, Decision{Allow: true}, Decision{Allow: true}},
		{"/login", AuthOnly, true, Decision{Allow: true}, Decision{Redirect: "/projects"}},
		{"/projects", Protected, true, Decision{Redirect: "/login"}, Decision{Allow: true}},
		{"/projects/", Protected, true, Decision{Redirect: "/login"}, Decision{Allow: true}},
		{"/projects/42", Protected, true, Decision{Redirect: "/login"}, Decision{Allow: true}},
		{"/projects/abc", Public, false, Decision{Redirect: "/"}, Decision{Redirect: "/"}},
		{"/elsewhere", Public, false, Decision{Redirect: "/"}, Decision{Redirect: "/"}},
	}
	for _, tc := range cases {
		kind, known := Classify(tc.path)
		if known != tc.known || (known && kind != tc.kind) {
			t.Fatalf("Classify(%q) = %v,%v want %v,%v", tc.path, kind, known, tc.kind, tc.known)
		}
		if got := Navigate(anon, tc.path); got != tc.anon {
			t.Fatalf("Navigate(anon, %q) = %+v want %+v", tc.path, got, tc.anon)
		}
		if got := Navigate(authed, tc.path); got != tc.authed {
			t.Fatalf("Navigate(authed, %q) = %+v want %+v", tc.path, got, tc.authed)
		}
	}
	if ProjectPath(7) != "/projects/7" {
		t.Fatalf("ProjectPath: %s", ProjectPath(7))
	}
}

func TestWatcher_RedirectsOnLogout(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(&session.MemoryStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.Restore(ctx)

	type seen struct {
		path string
		d    Decision
	}
	var got []seen
	w := Watch(m, "/login", func(path string, d Decision) { got = append(got, seen{path, d}) })
	defer w.Close()

	if err := m.Login(ctx, "t", "alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	// login screen is left for the protected home
	if len(got) != 1 || got[0].d.Redirect != ProjectsPath || w.Path() != ProjectsPath {
		t.Fatalf("after login: %+v path=%s", got, w.Path())
	}

	w.SetPath("/projects/3")
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(got) != 2 || got[1].path != "/projects/3" || got[1].d.Redirect != AuthPath || w.Path() != AuthPath {
		t.Fatalf("after logout: %+v path=%s", got, w.Path())
	}

	w.Close()
	_ = m.Login(ctx, "t", "alice")
	if len(got) != 2 {
		t.Fatalf("closed watcher must not receive updates: %+v", got)
	}
}
