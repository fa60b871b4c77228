package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tracker-client/internal/domain"
)

// TasksAPI implements ports.TaskClient.
type TasksAPI struct{ c *Client }

// List fetches one page of a project's tasks.
// GET /tasks/project/{projectID}?page=&size=
func (t *TasksAPI) List(ctx context.Context, projectID int64, page, size int) (domain.PagedResult[domain.Task], error) {
	const op = "tasks.list"
	if err := positiveID(op, projectID); err != nil {
		return domain.PagedResult[domain.Task]{}, err
	}
	if err := domain.ValidatePage(page, size); err != nil {
		return domain.PagedResult[domain.Task]{}, fmt.Errorf("%s: %w", op, err)
	}
	var raw rawPage[rawTask]
	err := t.c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   fmt.Sprintf("/tasks/project/%d", projectID),
		query:  pageQuery(page, size),
		out:    &raw,
	})
	if err != nil {
		return domain.PagedResult[domain.Task]{}, err
	}
	return mapPage(raw, rawTask.toDomain), nil
}

// Create adds an incomplete task to projectID.
func (t *TasksAPI) Create(ctx context.Context, projectID int64, d domain.TaskDraft) (domain.Task, error) {
	const op = "tasks.create"
	if err := positiveID(op, projectID); err != nil {
		return domain.Task{}, err
	}
	if err := d.Validate(); err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	body := fromDomainTask(domain.Task{
		ProjectID:   projectID,
		Title:       d.Title,
		Description: d.Description,
		Deadline:    d.Deadline,
	})
	var raw rawTask
	err := t.c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/tasks",
		body:   createTaskBody{rawTaskFields: body.rawTaskFields},
		out:    &raw,
	})
	if err != nil {
		return domain.Task{}, err
	}
	return raw.toDomain(), nil
}

// Update replaces the whole task record. Callers pass the complete current
// record with only the intended fields changed.
func (t *TasksAPI) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	const op = "tasks.update"
	if err := positiveID(op, task.ID); err != nil {
		return domain.Task{}, err
	}
	if err := (domain.TaskDraft{Title: task.Title}).Validate(); err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	var raw rawTask
	err := t.c.do(ctx, call{
		op:     op,
		method: http.MethodPut,
		path:   "/tasks",
		body:   fromDomainTask(task),
		out:    &raw,
	})
	if err != nil {
		return domain.Task{}, err
	}
	return raw.toDomain(), nil
}

func (t *TasksAPI) Delete(ctx context.Context, id int64) error {
	const op = "tasks.delete"
	if err := positiveID(op, id); err != nil {
		return err
	}
	return t.c.do(ctx, call{
		op:     op,
		method: http.MethodDelete,
		path:   fmt.Sprintf("/tasks/%d", id),
	})
}

type rawTaskFields struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline"`
	Completed   *bool   `json:"completed"`
	ProjectID   int64   `json:"projectId"`
}

// rawTask mirrors the task JSON of the tracker API.
type rawTask struct {
	ID int64 `json:"id"`
	rawTaskFields
}

type createTaskBody struct {
	rawTaskFields
}

func (r rawTask) toDomain() domain.Task {
	out := domain.Task{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Completed != nil {
		out.Completed = *r.Completed
	}
	if r.Deadline != nil {
		// An unparsable deadline is dropped rather than failing the whole list.
		if d, err := domain.ParseDate(*r.Deadline); err == nil {
			out.Deadline = d
		}
	}
	return out
}

func fromDomainTask(t domain.Task) rawTask {
	completed := t.Completed
	out := rawTask{
		ID: t.ID,
		rawTaskFields: rawTaskFields{
			Title:       t.Title,
			Description: t.Description,
			Completed:   &completed,
			ProjectID:   t.ProjectID,
		},
	}
	if t.Deadline != nil {
		s := t.Deadline.In(time.UTC).Format(domain.DateLayout)
		out.Deadline = &s
	}
	return out
}
