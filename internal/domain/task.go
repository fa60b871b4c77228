package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format for task deadlines.
const DateLayout = "2006-01-02"

// Task belongs to one Project by reference.
type Task struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Deadline    *time.Time // date only, UTC midnight
	Completed   bool
}

// Toggled returns a copy of t with Completed inverted and every other field unchanged.
func (t Task) Toggled() Task {
	out := t
	out.Completed = !t.Completed
	if t.Deadline != nil {
		d := *t.Deadline
		out.Deadline = &d
	}
	return out
}

// TaskDraft is the input for a new task.
type TaskDraft struct {
	Title       string
	Description string
	Deadline    *time.Time
}

func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ValidationError("title is required")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD deadline. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, ValidationError("deadline must be YYYY-MM-DD")
	}
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}
