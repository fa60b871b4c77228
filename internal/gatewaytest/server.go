// Package gatewaytest provides an in-process tracker API for tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tracker-client/internal/domain"
)

// Server is a fake tracker API backed by in-memory maps.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]string // username -> password
	tokens   map[string]string // token -> username
	nextID   int64
	projects map[int64]*project
	tasks    map[int64]*task
	faults   map[string]int
	requests []Request

	// LegacyTotals makes list responses carry totalItems instead of totalCount.
	LegacyTotals bool
}

// Request is one observed call.
type Request struct {
	Method    string
	Path      string
	RequestID string
	Auth      string
}

type project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"ownerUsername"`
}

type task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline"`
	Completed   bool    `json:"completed"`
	ProjectID   int64   `json:"projectId"`
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    map[string]string{},
		tokens:   map[string]string{},
		projects: map[int64]*project{},
		tasks:    map[int64]*task{},
		faults:   map[string]int{},
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API root to hand to gateway.NewClient.
func (s *Server) URL() string { return s.srv.URL + "/api" }

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuth)

			r.Get("/projects/user/{username}", s.listProjects)
			r.Post("/projects", s.createProject)
			r.Put("/projects", s.updateProject)
			r.Delete("/projects/{id}", s.deleteProject)

			r.Get("/tasks/project/{projectID}", s.listTasks)
			r.Post("/tasks", s.createTask)
			r.Put("/tasks", s.updateTask)
			r.Delete("/tasks/{id}", s.deleteTask)

			r.Get("/analytics/progression/{projectID}", s.progression)
			r.Get("/analytics/totalTasks/{projectID}", s.totalTasks)
			r.Get("/analytics/totalCompletdTasks/{projectID}", s.completedTasks)
		})
	})
	return r
}

// Fail makes every call to op answer with status until Recover is called.
// op uses the gateway operation names, e.g. "tasks.create".
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = status
}

func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, op)
}

// AddUser registers a user and returns a valid token for it.
func (s *Server) AddUser(username, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
	return s.issueLocked(username)
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// SeedProject stores a project for owner directly.
func (s *Server) SeedProject(owner, title, description string) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &project{ID: s.nextID, Title: title, Description: description, Owner: owner}
	s.projects[p.ID] = p
	return domain.Project{ID: p.ID, Title: title, Description: description, OwnerUsername: owner}
}

// SeedTask stores a task under projectID directly.
func (s *Server) SeedTask(projectID int64, title string, completed bool) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &task{ID: s.nextID, Title: title, Completed: completed, ProjectID: projectID}
	s.tasks[t.ID] = t
	return domain.Task{ID: t.ID, ProjectID: projectID, Title: title, Completed: completed}
}

// TaskCount returns how many tasks projectID holds server-side.
func (s *Server) TaskCount(projectID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

// Requests returns the calls observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) issueLocked(username string) string {
	tok := uuid.NewString()
	s.tokens[tok] = username
	return tok
}

type userKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			Auth:      r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		user, known := s.tokens[tok]
		s.mu.Unlock()
		if !ok || !known {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// fault answers with an injected failure for op, if one is set.
func (s *Server) fault(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	status, ok := s.faults[op]
	s.mu.Unlock()
	if !ok {
		return false
	}
	writeError(w, status, fmt.Sprintf("injected failure for %s", op))
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "auth.login") {
		return
	}
	var in struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[in.Username]; !ok || pw != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.issueLocked(in.Username)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "auth.register") {
		return
	}
	var in struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[in.Username]; exists {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	s.users[in.Username] = in.Password
	writeJSON(w, http.StatusOK, map[string]string{"token": s.issueLocked(in.Username)})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "projects.list") {
		return
	}
	page, size, ok := paging(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "username")
	s.mu.Lock()
	var all []any
	for _, id := range sortedKeys(s.projects) {
		if p := s.projects[id]; p.Owner == owner {
			cp := *p
			all = append(all, cp)
		}
	}
	s.mu.Unlock()
	s.writePage(w, all, page, size)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "projects.create") {
		return
	}
	var in project
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	s.nextID++
	p := &project{ID: s.nextID, Title: in.Title, Description: in.Description, Owner: userFrom(r)}
	s.projects[p.ID] = p
	out := *p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "projects.update") {
		return
	}
	var in project
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[in.ID]
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	p.Title, p.Description = in.Title, in.Description
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "projects.delete") {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	delete(s.projects, id)
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, tid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "tasks.list") {
		return
	}
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	page, size, ok := paging(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	var all []any
	for _, id := range sortedKeys(s.tasks) {
		if t := s.tasks[id]; t.ProjectID == projectID {
			cp := *t
			all = append(all, cp)
		}
	}
	s.mu.Unlock()
	s.writePage(w, all, page, size)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "tasks.create") {
		return
	}
	var in task
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validDeadline(in.Deadline) {
		writeError(w, http.StatusBadRequest, "invalid deadline")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[in.ProjectID]; !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	s.nextID++
	in.ID = s.nextID
	t := in
	s.tasks[t.ID] = &t
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "tasks.update") {
		return
	}
	var in task
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !validDeadline(in.Deadline) {
		writeError(w, http.StatusBadRequest, "invalid deadline")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[in.ID]; !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	t := in
	s.tasks[t.ID] = &t
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "tasks.delete") {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(s.tasks, id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) counts(projectID int64) (total, completed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}
	return total, completed
}

func (s *Server) progression(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "analytics.progress") {
		return
	}
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	total, completed := s.counts(id)
	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	writeJSON(w, http.StatusOK, map[string]float64{"percentageProgression": pct})
}

func (s *Server) totalTasks(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "analytics.total_tasks") {
		return
	}
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	total, _ := s.counts(id)
	writeJSON(w, http.StatusOK, map[string]int64{"totalTasks": total})
}

func (s *Server) completedTasks(w http.ResponseWriter, r *http.Request) {
	if s.fault(w, "analytics.completed_tasks") {
		return
	}
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	_, completed := s.counts(id)
	writeJSON(w, http.StatusOK, map[string]int64{"totalTasks": completed})
}

func (s *Server) writePage(w http.ResponseWriter, all []any, page, size int) {
	items := []any{}
	if start := page * size; start < len(all) {
		end := min(start+size, len(all))
		items = all[start:end]
	}
	totalPages := (len(all) + size - 1) / size
	body := map[string]any{
		"items":      items,
		"page":       page,
		"size":       size,
		"totalPages": totalPages,
	}
	if s.LegacyTotals {
		body["totalItems"] = len(all)
	} else {
		body["totalCount"] = len(all)
	}
	writeJSON(w, http.StatusOK, body)
}

func paging(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	page, err1 := strconv.Atoi(r.URL.Query().Get("page"))
	size, err2 := strconv.Atoi(r.URL.Query().Get("size"))
	if err1 != nil || err2 != nil || page < 0 || size <= 0 {
		writeError(w, http.StatusBadRequest, "invalid paging")
		return 0, 0, false
	}
	return page, size, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func validDeadline(d *string) bool {
	if d == nil {
		return true
	}
	_, err := time.Parse(domain.DateLayout, *d)
	return err == nil
}

func userFrom(r *http.Request) string {
	u, _ := r.Context().Value(userKey{}).(string)
	return u
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
