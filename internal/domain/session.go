package domain

import "strings"

// Session is the authenticated identity currently active in the client.
// The zero value is the unauthenticated session.
type Session struct {
	Token       string
	DisplayName string
}

// Authenticated reports whether both the token and display name are present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != "" && strings.TrimSpace(s.DisplayName) != ""
}

// Normalize collapses a half-populated session into the empty one.
func (s Session) Normalize() Session {
	if !s.Authenticated() {
		return Session{}
	}
	return s
}
