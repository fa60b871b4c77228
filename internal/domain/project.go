package domain

import "strings"

// Project is a tracker project owned by exactly one user.
type Project struct {
	ID            int64
	Title         string
	Description   string
	OwnerUsername string
}

// ProjectDraft holds the fields a user fills in before a project exists server-side.
type ProjectDraft struct {
	Title       string
	Description string
}

// Validate enforces the only client-side precondition: a non-empty title.
func (d ProjectDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ValidationError("title is required")
	}
	return nil
}
