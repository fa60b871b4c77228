package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"tracker-client/internal/domain"
	"tracker-client/internal/ports"
)

// DefaultPageSize is how many records a view requests in its single page.
const DefaultPageSize = 100

// ProjectsState is a renderable snapshot of the projects view.
type ProjectsState struct {
	Owner      string
	Projects   []domain.Project
	TotalCount int64
	Loaded     bool
	Err        string // user-facing message of the last failure, if any
	LastErr    error  // typed cause of Err
	Draft      domain.ProjectDraft
}

// Empty reports whether the view should show its empty-state affordance.
func (s ProjectsState) Empty() bool { return s.Loaded && len(s.Projects) == 0 }

// ProjectsView keeps the owner's project list in step with the gateway.
// Every successful mutation is followed by a full reload of the list.
type ProjectsView struct {
	client   ports.ProjectClient
	log      *slog.Logger
	pageSize int

	mu     sync.Mutex
	st     ProjectsState
	synced bool // current key has one successful fetch
}

func NewProjectsView(client ports.ProjectClient, log *slog.Logger, pageSize int) *ProjectsView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ProjectsView{client: client, log: log, pageSize: pageSize}
}

// Activate loads the list for owner unless it is already showing that owner.
func (v *ProjectsView) Activate(ctx context.Context, owner string) error {
	v.mu.Lock()
	same := v.synced && v.st.Owner == owner
	v.mu.Unlock()
	if same {
		return nil
	}
	return v.load(ctx, owner)
}

// Reload refetches the current owner's list.
func (v *ProjectsView) Reload(ctx context.Context) error {
	return v.load(ctx, v.State().Owner)
}

func (v *ProjectsView) load(ctx context.Context, owner string) error {
	v.mu.Lock()
	keyChanged := v.st.Owner != owner
	if keyChanged {
		v.synced = false
		v.st = ProjectsState{Owner: owner, Draft: v.st.Draft}
	}
	v.st.Err, v.st.LastErr = "", nil
	v.mu.Unlock()

	res, err := v.client.List(ctx, owner, 0, v.pageSize)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.st.Owner != owner {
		v.log.Debug("dropping stale project list", slog.String("owner", owner))
		return nil
	}
	v.st.Loaded = true
	if err != nil {
		// A failed reload keeps the previous list; a new owner starts empty.
		v.fail(err, "Failed to load projects")
		return err
	}
	v.st.Projects = res.Items
	v.st.TotalCount = res.TotalCount
	v.synced = true
	v.log.Debug("projects loaded", slog.String("owner", owner), slog.Int("count", len(res.Items)))
	return nil
}

// State returns a copy of the current view state.
func (v *ProjectsView) State() ProjectsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.st
	out.Projects = slices.Clone(v.st.Projects)
	return out
}

// SetDraft records the dialog input.
func (v *ProjectsView) SetDraft(d domain.ProjectDraft) {
	v.mu.Lock()
	v.st.Draft = d
	v.mu.Unlock()
}

func (v *ProjectsView) Draft() domain.ProjectDraft {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st.Draft
}

// Create submits d. The draft is cleared only when the project was created.
func (v *ProjectsView) Create(ctx context.Context, d domain.ProjectDraft) error {
	v.begin(func(st *ProjectsState) { st.Draft = d })
	if _, err := v.client.Create(ctx, d); err != nil {
		return v.mutationFailed(err, "Failed to create project")
	}
	v.SetDraft(domain.ProjectDraft{})
	return v.resync(ctx, "create")
}

// Update replaces p server-side.
func (v *ProjectsView) Update(ctx context.Context, p domain.Project) error {
	v.begin(nil)
	if _, err := v.client.Update(ctx, p); err != nil {
		return v.mutationFailed(err, "Failed to update project")
	}
	return v.resync(ctx, "update")
}

func (v *ProjectsView) Delete(ctx context.Context, id int64) error {
	v.begin(nil)
	if err := v.client.Delete(ctx, id); err != nil {
		return v.mutationFailed(err, "Failed to delete project")
	}
	return v.resync(ctx, "delete")
}

func (v *ProjectsView) begin(fn func(*ProjectsState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.Err, v.st.LastErr = "", nil
	if fn != nil {
		fn(&v.st)
	}
}

func (v *ProjectsView) mutationFailed(err error, fallback string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fail(err, fallback)
	return err
}

// fail records err; v.mu must be held.
func (v *ProjectsView) fail(err error, fallback string) {
	v.st.Err = domain.UserMessage(err, fallback)
	v.st.LastErr = err
	v.log.Error(fallback, slog.String("owner", v.st.Owner), slog.String("error", err.Error()))
}

func (v *ProjectsView) resync(ctx context.Context, op string) error {
	if err := v.Reload(ctx); err != nil {
		return fmt.Errorf("reload after %s: %w", op, err)
	}
	return nil
}
