package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"tracker-client/internal/domain"
	"tracker-client/internal/ports"
)

// ProjectDetailsState is a renderable snapshot of one project's tasks and progress.
type ProjectDetailsState struct {
	ProjectID  int64
	Tasks      []domain.Task
	TotalCount int64
	// Progress is 0 when ProgressKnown is false.
	Progress      float64
	ProgressKnown bool
	Loaded        bool
	Err           string
	LastErr       error
	Draft         domain.TaskDraft
}

// ProgressPercent is the progress rounded for display.
func (s ProjectDetailsState) ProgressPercent() int { return int(math.Round(s.Progress)) }

func (s ProjectDetailsState) Empty() bool { return s.Loaded && len(s.Tasks) == 0 }

// ProjectDetailsView keeps a project's task list and progress snapshot in
// step with the gateway. Analytics failures degrade to 0% without failing
// the load.
type ProjectDetailsView struct {
	tasks     ports.TaskClient
	analytics ports.AnalyticsClient
	log       *slog.Logger
	pageSize  int

	mu     sync.Mutex
	st     ProjectDetailsState
	synced bool // current key has one successful fetch
}

func NewProjectDetailsView(tasks ports.TaskClient, analytics ports.AnalyticsClient, log *slog.Logger, pageSize int) *ProjectDetailsView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ProjectDetailsView{tasks: tasks, analytics: analytics, log: log, pageSize: pageSize}
}

// Activate loads projectID unless it is already the loaded project.
func (v *ProjectDetailsView) Activate(ctx context.Context, projectID int64) error {
	v.mu.Lock()
	same := v.synced && v.st.ProjectID == projectID
	v.mu.Unlock()
	if same {
		return nil
	}
	return v.load(ctx, projectID)
}

func (v *ProjectDetailsView) Reload(ctx context.Context) error {
	return v.load(ctx, v.State().ProjectID)
}

func (v *ProjectDetailsView) load(ctx context.Context, projectID int64) error {
	v.mu.Lock()
	if v.st.ProjectID != projectID {
		v.synced = false
		v.st = ProjectDetailsState{ProjectID: projectID, Draft: v.st.Draft}
	}
	v.st.Err, v.st.LastErr = "", nil
	v.mu.Unlock()

	var (
		wg      sync.WaitGroup
		page    domain.PagedResult[domain.Task]
		listErr error
		snap    domain.ProgressSnapshot
		progErr error
	)
	// Both calls always run to completion; one failing never cancels the other.
	wg.Add(2)
	go func() {
		defer wg.Done()
		page, listErr = v.tasks.List(ctx, projectID, 0, v.pageSize)
	}()
	go func() {
		defer wg.Done()
		snap, progErr = v.analytics.Progress(ctx, projectID)
	}()
	wg.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.st.ProjectID != projectID {
		v.log.Debug("dropping stale project details", slog.Int64("project_id", projectID))
		return nil
	}
	v.st.Loaded = true
	if listErr != nil {
		v.fail(listErr, "Failed to load project data")
		return listErr
	}
	v.st.Tasks = page.Items
	v.st.TotalCount = page.TotalCount
	v.synced = true
	if progErr != nil {
		v.log.Warn("progress unavailable, showing 0%",
			slog.Int64("project_id", projectID),
			slog.String("error", progErr.Error()),
		)
		v.st.Progress, v.st.ProgressKnown = 0, false
	} else {
		v.st.Progress, v.st.ProgressKnown = snap.PercentageProgression, true
	}
	v.log.Debug("project details loaded",
		slog.Int64("project_id", projectID),
		slog.Int("tasks", len(page.Items)),
		slog.Bool("progress_known", v.st.ProgressKnown),
	)
	return nil
}

func (v *ProjectDetailsView) State() ProjectDetailsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.st
	out.Tasks = slices.Clone(v.st.Tasks)
	return out
}

func (v *ProjectDetailsView) SetDraft(d domain.TaskDraft) {
	v.mu.Lock()
	v.st.Draft = d
	v.mu.Unlock()
}

// CreateTask adds an incomplete task to the loaded project.
func (v *ProjectDetailsView) CreateTask(ctx context.Context, d domain.TaskDraft) error {
	projectID := v.begin(func(st *ProjectDetailsState) { st.Draft = d })
	if _, err := v.tasks.Create(ctx, projectID, d); err != nil {
		return v.mutationFailed(err, "Failed to create task")
	}
	v.SetDraft(domain.TaskDraft{})
	return v.resync(ctx, "create")
}

// UpdateTask replaces t; t must be the complete record.
func (v *ProjectDetailsView) UpdateTask(ctx context.Context, t domain.Task) error {
	v.begin(nil)
	if _, err := v.tasks.Update(ctx, t); err != nil {
		return v.mutationFailed(err, "Failed to update task")
	}
	return v.resync(ctx, "update")
}

// ToggleTask flips Completed and resends the rest of t unchanged.
func (v *ProjectDetailsView) ToggleTask(ctx context.Context, t domain.Task) error {
	return v.UpdateTask(ctx, t.Toggled())
}

func (v *ProjectDetailsView) DeleteTask(ctx context.Context, id int64) error {
	v.begin(nil)
	if err := v.tasks.Delete(ctx, id); err != nil {
		return v.mutationFailed(err, "Failed to delete task")
	}
	return v.resync(ctx, "delete")
}

// FindTask returns the loaded task with id.
func (v *ProjectDetailsView) FindTask(id int64) (domain.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.st.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (v *ProjectDetailsView) begin(fn func(*ProjectDetailsState)) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.Err, v.st.LastErr = "", nil
	if fn != nil {
		fn(&v.st)
	}
	return v.st.ProjectID
}

func (v *ProjectDetailsView) mutationFailed(err error, fallback string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fail(err, fallback)
	return err
}

func (v *ProjectDetailsView) fail(err error, fallback string) {
	v.st.Err = domain.UserMessage(err, fallback)
	v.st.LastErr = err
	v.log.Error(fallback, slog.Int64("project_id", v.st.ProjectID), slog.String("error", err.Error()))
}

// resync reloads tasks and progress together after a successful mutation.
func (v *ProjectDetailsView) resync(ctx context.Context, op string) error {
	if err := v.Reload(ctx); err != nil {
		return fmt.Errorf("reload after %s: %w", op, err)
	}
	return nil
}
