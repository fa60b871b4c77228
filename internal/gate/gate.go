// Package gate decides whether a view may be entered for a given session.
// Every function here is pure and safe to call on each navigation attempt.
package gate

import (
	"strconv"
	"strings"

	"tracker-client/internal/domain"
)

// RouteKind classifies a view by its session requirement.
type RouteKind int

const (
	Public    RouteKind = iota // reachable by anyone
	AuthOnly                   // only without a session, e.g. the login screen
	Protected                  // only with a session
)

func (k RouteKind) String() string {
	switch k {
	case Public:
		return "public"
	case AuthOnly:
		return "auth-only"
	case Protected:
		return "protected"
	}
	return "unknown"
}

// Well-known paths.
const (
	HomePath     = "/"
	AuthPath     = "/login"
	ProjectsPath = "/projects"
)

// Decision is the outcome of a gate check. Redirect is set iff Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// CanEnter applies the session requirement of kind to s.
func CanEnter(s domain.Session, kind RouteKind) Decision {
	switch kind {
	case AuthOnly:
		if s.Authenticated() {
			return redirect(ProjectsPath)
		}
		return allow()
	case Protected:
		if !s.Authenticated() {
			return redirect(AuthPath)
		}
		return allow()
	}
	return allow()
}

// Classify maps a view path to its route kind.
func Classify(path string) (RouteKind, bool) {
	p := strings.TrimRight(path, "/")
	if p == "" {
		return Public, true
	}
	switch p {
	case AuthPath:
		return AuthOnly, true
	case ProjectsPath:
		return Protected, true
	}
	if rest, ok := strings.CutPrefix(p, ProjectsPath+"/"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			return Protected, true
		}
	}
	return Public, false
}

// Navigate resolves path and applies CanEnter. Unknown paths redirect home.
func Navigate(s domain.Session, path string) Decision {
	kind, ok := Classify(path)
	if !ok {
		return redirect(HomePath)
	}
	return CanEnter(s, kind)
}

// ProjectPath is the details view path for a project.
func ProjectPath(id int64) string {
	return ProjectsPath + "/" + strconv.FormatInt(id, 10)
}
