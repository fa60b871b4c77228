package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tracker-client/internal/domain"
)

// AnalyticsAPI implements ports.AnalyticsClient. It reports failures as-is;
// substituting a fallback is the caller's decision.
type AnalyticsAPI struct{ c *Client }

// Progress reads GET /analytics/progression/{projectID}.
func (a *AnalyticsAPI) Progress(ctx context.Context, projectID int64) (domain.ProgressSnapshot, error) {
	const op = "analytics.progress"
	if err := positiveID(op, projectID); err != nil {
		return domain.ProgressSnapshot{}, err
	}
	var raw struct {
		PercentageProgression *float64 `json:"percentageProgression"`
	}
	err := a.c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   fmt.Sprintf("/analytics/progression/%d", projectID),
		out:    &raw,
	})
	if err != nil {
		return domain.ProgressSnapshot{}, err
	}
	if raw.PercentageProgression == nil {
		return domain.ProgressSnapshot{}, &domain.APIError{Kind: domain.ErrServer, Op: op, Err: errors.New("missing percentageProgression")}
	}
	snap, ok := domain.NewProgressSnapshot(*raw.PercentageProgression)
	if !ok {
		return domain.ProgressSnapshot{}, &domain.APIError{Kind: domain.ErrServer, Op: op, Err: errors.New("invalid percentageProgression")}
	}
	return snap, nil
}

// TotalTasks reads GET /analytics/totalTasks/{projectID}.
func (a *AnalyticsAPI) TotalTasks(ctx context.Context, projectID int64) (int64, error) {
	return a.count(ctx, "analytics.total_tasks", fmt.Sprintf("/analytics/totalTasks/%d", projectID), projectID)
}

// CompletedTasks reads the completed-task counter. The path spelling matches
// what the server exposes.
func (a *AnalyticsAPI) CompletedTasks(ctx context.Context, projectID int64) (int64, error) {
	return a.count(ctx, "analytics.completed_tasks", fmt.Sprintf("/analytics/totalCompletdTasks/%d", projectID), projectID)
}

func (a *AnalyticsAPI) count(ctx context.Context, op, path string, projectID int64) (int64, error) {
	if err := positiveID(op, projectID); err != nil {
		return 0, err
	}
	var raw struct {
		TotalTasks *int64 `json:"totalTasks"`
	}
	if err := a.c.do(ctx, call{op: op, method: http.MethodGet, path: path, out: &raw}); err != nil {
		return 0, err
	}
	if raw.TotalTasks == nil {
		return 0, &domain.APIError{Kind: domain.ErrServer, Op: op, Err: errors.New("missing totalTasks")}
	}
	return *raw.TotalTasks, nil
}
