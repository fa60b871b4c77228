package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracker-client/internal/domain"
	"tracker-client/internal/ports"
)

// DefaultBaseURL is the API root of a locally running tracker backend.
const DefaultBaseURL = "http://localhost:8080/api"

const (
	maxResponseBytes = 8 << 20
	maxMessageLen    = 200
)

// Client talks to the remote tracker API. Resource facades are obtained with
// Projects, Tasks, Analytics and Auth.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenSource
	log     *slog.Logger
}

// NewClient builds a gateway client. tokens may be nil for unauthenticated use.
func NewClient(baseURL string, timeout time.Duration, tokens ports.TokenSource, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) Projects() *ProjectsAPI   { return &ProjectsAPI{c: c} }
func (c *Client) Tasks() *TasksAPI         { return &TasksAPI{c: c} }
func (c *Client) Analytics() *AnalyticsAPI { return &AnalyticsAPI{c: c} }
func (c *Client) Auth() *AuthAPI           { return &AuthAPI{c: c} }

// call describes one gateway request.
type call struct {
	op     string
	method string
	path   string // already escaped, relative to baseURL
	query  url.Values
	body   any
	out    any // nil when the response body is ignored
	noAuth bool
}

// errorBody is the server's error envelope.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, cl call) error {
	u, err := url.Parse(c.baseURL + cl.path)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrTransport, Op: cl.op, Err: err}
	}
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return &domain.APIError{Kind: domain.ErrValidation, Op: cl.op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrTransport, Op: cl.op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.noAuth && c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("gateway request failed",
			slog.String("op", cl.op),
			slog.String("method", cl.method),
			slog.String("path", u.Path),
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		return &domain.APIError{Kind: domain.ErrTransport, Op: cl.op, Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug("gateway request",
		slog.String("op", cl.op),
		slog.String("method", cl.method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", reqID),
		slog.Duration("dur", time.Since(start)),
	)

	if kind := domain.KindForStatus(resp.StatusCode); kind != nil {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.APIError{Kind: kind, Op: cl.op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.APIError{Kind: domain.ErrTransport, Op: cl.op, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &domain.APIError{Kind: domain.ErrServer, Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error response body.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		return ""
	}
	if raw[0] == '<' {
		// HTML error pages carry nothing useful for the user.
		return ""
	}
	msg, _, _ := strings.Cut(string(raw), "\n")
	msg = strings.TrimSpace(msg)
	if r := []rune(msg); len(r) > maxMessageLen {
		msg = string(r[:maxMessageLen]) + "..."
	}
	return msg
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}

// rawPage accepts both totalCount and the older totalItems field.
type rawPage[T any] struct {
	Items      []T    `json:"items"`
	TotalCount *int64 `json:"totalCount"`
	TotalItems *int64 `json:"totalItems"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	TotalPages int    `json:"totalPages"`
}

func mapPage[R, T any](raw rawPage[R], fn func(R) T) domain.PagedResult[T] {
	out := domain.PagedResult[T]{
		Items:      make([]T, 0, len(raw.Items)),
		Page:       raw.Page,
		Size:       raw.Size,
		TotalPages: raw.TotalPages,
	}
	for _, r := range raw.Items {
		out.Items = append(out.Items, fn(r))
	}
	switch {
	case raw.TotalCount != nil:
		out.TotalCount = *raw.TotalCount
	case raw.TotalItems != nil:
		out.TotalCount = *raw.TotalItems
	default:
		out.TotalCount = int64(len(out.Items))
	}
	return out
}

func positiveID(op string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%s: %w", op, domain.ValidationError("id must be positive"))
	}
	return nil
}
