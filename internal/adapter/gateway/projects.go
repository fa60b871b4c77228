package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tracker-client/internal/domain"
)

// ProjectsAPI implements ports.ProjectClient.
type ProjectsAPI struct{ c *Client }

// List fetches one page of the owner's projects.
// GET /projects/user/{owner}?page=&size=
func (p *ProjectsAPI) List(ctx context.Context, owner string, page, size int) (domain.PagedResult[domain.Project], error) {
	const op = "projects.list"
	if strings.TrimSpace(owner) == "" {
		return domain.PagedResult[domain.Project]{}, fmt.Errorf("%s: %w", op, domain.ValidationError("owner is required"))
	}
	if err := domain.ValidatePage(page, size); err != nil {
		return domain.PagedResult[domain.Project]{}, fmt.Errorf("%s: %w", op, err)
	}
	var raw rawPage[rawProject]
	err := p.c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/projects/user/" + url.PathEscape(owner),
		query:  pageQuery(page, size),
		out:    &raw,
	})
	if err != nil {
		return domain.PagedResult[domain.Project]{}, err
	}
	return mapPage(raw, rawProject.toDomain), nil
}

// Create posts a new project; the server assigns id and owner.
func (p *ProjectsAPI) Create(ctx context.Context, d domain.ProjectDraft) (domain.Project, error) {
	const op = "projects.create"
	if err := d.Validate(); err != nil {
		return domain.Project{}, fmt.Errorf("%s: %w", op, err)
	}
	var raw rawProject
	err := p.c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/projects",
		body:   createProjectBody{Title: d.Title, Description: d.Description},
		out:    &raw,
	})
	if err != nil {
		return domain.Project{}, err
	}
	return raw.toDomain(), nil
}

// Update replaces the whole project record.
func (p *ProjectsAPI) Update(ctx context.Context, pr domain.Project) (domain.Project, error) {
	const op = "projects.update"
	if err := positiveID(op, pr.ID); err != nil {
		return domain.Project{}, err
	}
	if err := (domain.ProjectDraft{Title: pr.Title}).Validate(); err != nil {
		return domain.Project{}, fmt.Errorf("%s: %w", op, err)
	}
	var raw rawProject
	err := p.c.do(ctx, call{
		op:     op,
		method: http.MethodPut,
		path:   "/projects",
		body:   fromDomainProject(pr),
		out:    &raw,
	})
	if err != nil {
		return domain.Project{}, err
	}
	return raw.toDomain(), nil
}

func (p *ProjectsAPI) Delete(ctx context.Context, id int64) error {
	const op = "projects.delete"
	if err := positiveID(op, id); err != nil {
		return err
	}
	return p.c.do(ctx, call{
		op:     op,
		method: http.MethodDelete,
		path:   fmt.Sprintf("/projects/%d", id),
	})
}

type createProjectBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// rawProject mirrors the project JSON of the tracker API.
type rawProject struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	OwnerUsername string `json:"ownerUsername"`
}

func (r rawProject) toDomain() domain.Project {
	return domain.Project{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		OwnerUsername: r.OwnerUsername,
	}
}

func fromDomainProject(p domain.Project) rawProject {
	return rawProject{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		OwnerUsername: p.OwnerUsername,
	}
}
