package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"tracker-client/internal/domain"
)

func TestProjectDetails_AnalyticsFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	c, srv := newGateway(t)
	p := srv.SeedProject("alice", "P", "")
	for _, title := range []string{"one", "two", "three"} {
		srv.SeedTask(p.ID, title, true)
	}
	srv.Fail("analytics.progress", http.StatusServiceUnavailable)

	v := NewProjectDetailsView(c.Tasks(), c.Analytics(), quietLogger(), 100)
	if err := v.Activate(ctx, p.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %+v", st.Tasks)
	}
	if st.ProgressPercent() != 0 || st.ProgressKnown {
		t.Fatalf("expected unknown 0%% progress, got %v known=%v", st.Progress, st.ProgressKnown)
	}
	if st.Err != "" {
		t.Fatalf("analytics failure must not surface an error, got %q", st.Err)
	}

	srv.Recover("analytics.progress")
	if err := v.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st := v.State(); st.ProgressPercent() != 100 || !st.ProgressKnown {
		t.Fatalf("expected 100%% after recovery, got %+v", st)
	}
}

func TestProjectDetails_TaskListFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	c, srv := newGateway(t)
	p := srv.SeedProject("alice", "P", "")
	srv.SeedTask(p.ID, "t", false)
	srv.Fail("tasks.list", http.StatusInternalServerError)

	v := NewProjectDetailsView(c.Tasks(), c.Analytics(), quietLogger(), 100)
	err := v.Activate(ctx, p.ID)
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 0 || st.Err == "" || st.ProgressKnown {
		t.Fatalf("unexpected state: %+v", st)
	}

	// Activating the same project again retries because it never loaded.
	srv.Recover("tasks.list")
	if err := v.Activate(ctx, p.ID); err != nil {
		t.Fatalf("retry Activate: %v", err)
	}
	if st := v.State(); len(st.Tasks) != 1 || st.Err != "" {
		t.Fatalf("unexpected state after retry: %+v", st)
	}
}

func TestProjectDetails_FailedCreateLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	c, srv := newGateway(t)
	p := srv.SeedProject("alice", "P", "")
	srv.SeedTask(p.ID, "a", false)
	srv.SeedTask(p.ID, "b", true)

	v := NewProjectDetailsView(c.Tasks(), c.Analytics(), quietLogger(), 100)
	_ = v.Activate(ctx, p.ID)
	before := v.State()

	srv.Fail("tasks.create", http.StatusBadRequest)
	draft := domain.TaskDraft{Title: "c", Description: "keep me"}
	if err := v.CreateTask(ctx, draft); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	after := v.State()
	if len(after.Tasks) != len(before.Tasks) {
		t.Fatalf("task count changed: %d -> %d", len(before.Tasks), len(after.Tasks))
	}
	for i := range before.Tasks {
		if before.Tasks[i].ID != after.Tasks[i].ID || before.Tasks[i].Title != after.Tasks[i].Title || before.Tasks[i].Completed != after.Tasks[i].Completed {
			t.Fatalf("task %d changed: %+v -> %+v", i, before.Tasks[i], after.Tasks[i])
		}
	}
	if after.Draft.Title != draft.Title || after.Draft.Description != draft.Description {
		t.Fatalf("draft not preserved: %+v", after.Draft)
	}
	if after.Progress != before.Progress {
		t.Fatalf("progress changed on failed create: %v -> %v", before.Progress, after.Progress)
	}
	if after.Err != "injected failure for tasks.create" {
		t.Fatalf("expected server message, got %q", after.Err)
	}
}

func TestProjectDetails_ToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newGateway(t)
	p := srv.SeedProject("alice", "P", "")
	v := NewProjectDetailsView(c.Tasks(), c.Analytics(), quietLogger(), 100)
	_ = v.Activate(ctx, p.ID)

	deadline, _ := domain.ParseDate("2027-01-15")
	if err := v.CreateTask(ctx, domain.TaskDraft{Title: "ship", Description: "it", Deadline: deadline}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 1 || st.Draft.Title != "" {
		t.Fatalf("unexpected state after create: %+v", st)
	}
	orig := st.Tasks[0]

	if err := v.ToggleTask(ctx, orig); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	st = v.State()
	got, ok := v.FindTask(orig.ID)
	if !ok {
		t.Fatalf("task %d missing after toggle: %+v", orig.ID, st.Tasks)
	}
	if got.Completed == orig.Completed {
		t.Fatal("completed flag not inverted")
	}
	if got.Title != orig.Title || got.Description != orig.Description || got.ProjectID != orig.ProjectID || !got.Deadline.Equal(*orig.Deadline) {
		t.Fatalf("other fields changed: %+v -> %+v", orig, got)
	}
	// Progress is resynced together with the list.
	if st.ProgressPercent() != 100 || !st.ProgressKnown {
		t.Fatalf("expected 100%% after toggle, got %+v", st)
	}
}

func TestProjectDetails_DeleteResyncsProgress(t *testing.T) {
	ctx := context.Background()
	c, srv := newGateway(t)
	p := srv.SeedProject("alice", "P", "")
	srv.SeedTask(p.ID, "done", true)
	open := srv.SeedTask(p.ID, "open", false)

	v := NewProjectDetailsView(c.Tasks(), c.Analytics(), quietLogger(), 100)
	_ = v.Activate(ctx, p.ID)
	if st := v.State(); st.ProgressPercent() != 50 {
		t.Fatalf("expected 50%%, got %v", st.Progress)
	}
	if err := v.DeleteTask(ctx, open.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 1 || st.ProgressPercent() != 100 {
		t.Fatalf("unexpected state after delete: %+v", st)
	}
	if err := v.DeleteTask(ctx, open.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestProjectDetails_FetchesConcurrentlyAndWaitsForBoth(t *testing.T) {
	listStarted := make(chan struct{})
	progressStarted := make(chan struct{})
	timeout := time.After(2 * time.Second)

	tasks := &fakeTasks{list: func(ctx context.Context, projectID int64) (domain.PagedResult[domain.Task], error) {
		close(listStarted)
		select {
		case <-progressStarted:
		case <-timeout:
			return domain.PagedResult[domain.Task]{}, errors.New("progress fetch never started concurrently")
		}
		return domain.PagedResult[domain.Task]{Items: []domain.Task{{ID: 1, ProjectID: projectID, Title: "a"}}, TotalCount: 1}, nil
	}}
	analytics := &fakeAnalytics{progress: func(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
		close(progressStarted)
		<-listStarted
		// Settle after the list so the join has to wait for the slower call.
		time.Sleep(20 * time.Millisecond)
		return domain.ProgressSnapshot{}, &domain.APIError{Kind: domain.ErrTransport, Op: "analytics.progress"}
	}}

	v := NewProjectDetailsView(tasks, analytics, quietLogger(), 100)
	if err := v.Activate(context.Background(), 9); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 1 || st.ProgressKnown || st.Err != "" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestProjectDetails_ActivateSwitchesProject(t *testing.T) {
	ctx := context.Background()
	tasks := &fakeTasks{list: func(ctx context.Context, projectID int64) (domain.PagedResult[domain.Task], error) {
		return domain.PagedResult[domain.Task]{Items: []domain.Task{{ID: projectID * 10, ProjectID: projectID, Title: "t"}}}, nil
	}}
	analytics := &fakeAnalytics{progress: func(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
		return domain.ProgressSnapshot{PercentageProgression: 25}, nil
	}}
	v := NewProjectDetailsView(tasks, analytics, quietLogger(), 0)

	_ = v.Activate(ctx, 1)
	_ = v.Activate(ctx, 1)
	if n := tasks.calls.Load(); n != 1 {
		t.Fatalf("expected one fetch for the same project, got %d", n)
	}
	_ = v.Activate(ctx, 2)
	st := v.State()
	if st.ProjectID != 2 || len(st.Tasks) != 1 || st.Tasks[0].ProjectID != 2 {
		t.Fatalf("unexpected state after switch: %+v", st)
	}
	if st.Progress != 25 || !st.ProgressKnown {
		t.Fatalf("unexpected progress: %+v", st)
	}
}

func TestProjectDetails_ReloadFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	fail := false
	tasks := &fakeTasks{list: func(ctx context.Context, projectID int64) (domain.PagedResult[domain.Task], error) {
		if fail {
			return domain.PagedResult[domain.Task]{}, &domain.APIError{Kind: domain.ErrAuth, Op: "tasks.list", Status: 401}
		}
		return domain.PagedResult[domain.Task]{Items: []domain.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}}, nil
	}}
	analytics := &fakeAnalytics{progress: func(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
		return domain.ProgressSnapshot{PercentageProgression: 50}, nil
	}}
	v := NewProjectDetailsView(tasks, analytics, quietLogger(), 0)
	_ = v.Activate(ctx, 3)

	fail = true
	if err := v.Reload(ctx); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	st := v.State()
	if len(st.Tasks) != 2 || st.Progress != 50 || !errors.Is(st.LastErr, domain.ErrAuth) || st.Err != "Failed to load project data" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestProjectDetails_LateResultForPreviousProjectIsDropped(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	tasks := &fakeTasks{list: func(ctx context.Context, projectID int64) (domain.PagedResult[domain.Task], error) {
		if projectID == 1 {
			close(started)
			<-release
		}
		return domain.PagedResult[domain.Task]{Items: []domain.Task{{ID: projectID * 10, ProjectID: projectID, Title: "t"}}}, nil
	}}
	analytics := &fakeAnalytics{progress: func(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
		return domain.ProgressSnapshot{PercentageProgression: float64(projectID)}, nil
	}}
	v := NewProjectDetailsView(tasks, analytics, quietLogger(), 0)

	done := make(chan error, 1)
	go func() { done <- v.Activate(ctx, 1) }()
	<-started
	if err := v.Activate(ctx, 2); err != nil {
		t.Fatalf("Activate(2): %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Activate(1): %v", err)
	}

	st := v.State()
	if st.ProjectID != 2 || len(st.Tasks) != 1 || st.Tasks[0].ProjectID != 2 || st.Progress != 2 {
		t.Fatalf("project 1 result leaked into project 2: %+v", st)
	}
}
