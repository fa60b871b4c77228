package ports

import (
	"context"

	"tracker-client/internal/domain"
)

// SessionStore durably holds the single current session record.
// Set and Clear are visible to the next Get, including across restarts.
type SessionStore interface {
	Get(ctx context.Context) (domain.Session, error)
	Set(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error
}

// TokenSource supplies the bearer token attached to gateway requests.
type TokenSource interface {
	Token() (string, bool)
}

// AuthClient exchanges credentials for a token at the gateway.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) (string, error)
}

// ProjectClient is the project resource facade.
type ProjectClient interface {
	List(ctx context.Context, owner string, page, size int) (domain.PagedResult[domain.Project], error)
	Create(ctx context.Context, d domain.ProjectDraft) (domain.Project, error)
	Update(ctx context.Context, p domain.Project) (domain.Project, error)
	Delete(ctx context.Context, id int64) error
}

// TaskClient is the task resource facade.
type TaskClient interface {
	List(ctx context.Context, projectID int64, page, size int) (domain.PagedResult[domain.Task], error)
	Create(ctx context.Context, projectID int64, d domain.TaskDraft) (domain.Task, error)
	Update(ctx context.Context, t domain.Task) (domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// AnalyticsClient reads derived project metrics. Callers own any fallback.
type AnalyticsClient interface {
	Progress(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error)
}
