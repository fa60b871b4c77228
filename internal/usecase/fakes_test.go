package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"tracker-client/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTasks struct {
	list   func(ctx context.Context, projectID int64) (domain.PagedResult[domain.Task], error)
	create func(ctx context.Context, projectID int64, d domain.TaskDraft) (domain.Task, error)
	calls  atomic.Int32
}

func (f *fakeTasks) List(ctx context.Context, projectID int64, page, size int) (domain.PagedResult[domain.Task], error) {
	f.calls.Add(1)
	return f.list(ctx, projectID)
}

func (f *fakeTasks) Create(ctx context.Context, projectID int64, d domain.TaskDraft) (domain.Task, error) {
	return f.create(ctx, projectID, d)
}

func (f *fakeTasks) Update(ctx context.Context, t domain.Task) (domain.Task, error) { return t, nil }
func (f *fakeTasks) Delete(ctx context.Context, id int64) error                     { return nil }

type fakeAnalytics struct {
	progress func(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error)
}

func (f *fakeAnalytics) Progress(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
	return f.progress(ctx, projectID)
}

type fakeProjects struct {
	items []domain.Project
	err   error
	calls atomic.Int32
}

func (f *fakeProjects) List(ctx context.Context, owner string, page, size int) (domain.PagedResult[domain.Project], error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.PagedResult[domain.Project]{}, f.err
	}
	return domain.PagedResult[domain.Project]{Items: f.items, TotalCount: int64(len(f.items))}, nil
}

func (f *fakeProjects) Create(ctx context.Context, d domain.ProjectDraft) (domain.Project, error) {
	return domain.Project{}, f.err
}

func (f *fakeProjects) Update(ctx context.Context, p domain.Project) (domain.Project, error) {
	return p, f.err
}

func (f *fakeProjects) Delete(ctx context.Context, id int64) error { return f.err }
