package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
)

// DropConnection as a failure status makes the fake close the connection without answering
const DropConnection = -1

// RecordedRequest is a request seen by a fake server
type RecordedRequest struct {
	Method      string
	Path        string
	Pattern     string
	Query       string
	ContentType string
	RequestID   string
	Body        []byte
}

type failure struct {
	status  int
	message string
	times   int // negative means forever
}

// FakeBackend is an in-memory Maple ERP backend.
// Responses follow the backend contract: raw JSON bodies and {"message"} on errors.
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	employees map[int]domain.Employee
	nextID    int
	requests  []RecordedRequest
	failures  map[string]*failure
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		employees: make(map[int]domain.Employee),
		nextID:    1,
		failures:  make(map[string]*failure),
	}

	r := chi.NewRouter()
	r.Get("/health-check", b.handle("GET /health-check", b.health))
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", b.handle("GET /employees", b.list))
		r.Post("/", b.handle("POST /employees", b.create))
		r.Get("/search", b.handle("GET /employees/search", b.search))
		r.Get("/export", b.handle("GET /employees/export", b.export))
		r.Post("/badges", b.handle("POST /employees/badges", b.badges))
		r.Get("/{id}", b.handle("GET /employees/{id}", b.get))
		r.Put("/{id}", b.handle("PUT /employees/{id}", b.update))
		r.Delete("/{id}", b.handle("DELETE /employees/{id}", b.delete))
		r.Get("/{id}/badge", b.handle("GET /employees/{id}/badge", b.pdf("badge")))
		r.Get("/{id}/document", b.handle("GET /employees/{id}/document", b.pdf("document")))
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Seed stores employees, keeping their IDs
func (b *FakeBackend) Seed(employees ...domain.Employee) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range employees {
		b.employees[int(e.ID)] = e
		if int(e.ID) >= b.nextID {
			b.nextID = int(e.ID) + 1
		}
	}
}

// Employee returns the stored employee
func (b *FakeBackend) Employee(id int) (domain.Employee, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.employees[id]
	return e, ok
}

// Fail makes the next request matching pattern (e.g. "PUT /employees/{id}") fail once
func (b *FakeBackend) Fail(pattern string, status int, message string) {
	b.FailTimes(pattern, status, message, 1)
}

// FailTimes fails the next n matching requests; n < 0 fails all of them
func (b *FakeBackend) FailTimes(pattern string, status int, message string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[pattern] = &failure{status: status, message: message, times: n}
}

// Requests returns every request received so far
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Count returns how many requests matched pattern
func (b *FakeBackend) Count(pattern string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Pattern == pattern {
			n++
		}
	}
	return n
}

// Last returns the latest request matching pattern
func (b *FakeBackend) Last(pattern string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Pattern == pattern {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

func (b *FakeBackend) handle(pattern string, next func(http.ResponseWriter, *http.Request, []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Pattern:     pattern,
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			RequestID:   r.Header.Get("X-Request-ID"),
			Body:        body,
		})
		f := b.failures[pattern]
		var active *failure
		if f != nil && f.times != 0 {
			cp := *f
			active = &cp
			if f.times > 0 {
				f.times--
			}
		}
		b.mu.Unlock()

		if active != nil {
			if active.status == DropConnection {
				if hj, ok := w.(http.Hijacker); ok {
					if conn, _, err := hj.Hijack(); err == nil {
						conn.Close()
						return
					}
				}
			}
			writeMessage(w, active.status, active.message)
			return
		}

		next(w, r, body)
	}
}

func (b *FakeBackend) health(w http.ResponseWriter, _ *http.Request, _ []byte) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *FakeBackend) sorted() []domain.Employee {
	out := make([]domain.Employee, 0, len(b.employees))
	for _, e := range b.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *FakeBackend) list(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sorted())
}

func (b *FakeBackend) search(w http.ResponseWriter, r *http.Request, _ []byte) {
	q := r.URL.Query()
	name := strings.ToLower(q.Get("name"))
	job := strings.ToLower(q.Get("jobFunction"))
	status := q.Get("status")
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = 10
	}

	b.mu.Lock()
	var matched []domain.Employee
	for _, e := range b.sorted() {
		if name != "" && !strings.Contains(strings.ToLower(e.FullName), name) {
			continue
		}
		if job != "" && !strings.Contains(strings.ToLower(e.JobFunctions), job) {
			continue
		}
		if status != "" && string(e.Status) != status {
			continue
		}
		matched = append(matched, e)
	}
	b.mu.Unlock()

	page := []domain.Employee{}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page = matched[offset:end]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"employees": page,
		"total":     len(matched),
		"limit":     limit,
		"offset":    offset,
	})
}

func (b *FakeBackend) lookup(w http.ResponseWriter, r *http.Request) (domain.Employee, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ID inválido")
		return domain.Employee{}, false
	}
	e, ok := b.employees[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Funcionário não encontrado")
		return domain.Employee{}, false
	}
	return e, true
}

func (b *FakeBackend) get(w http.ResponseWriter, r *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, e)
	}
}

func (b *FakeBackend) create(w http.ResponseWriter, r *http.Request, body []byte) {
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "multipart/form-data esperado")
		return
	}
	if _, _, err := r.FormFile("file"); err != nil {
		writeMessage(w, http.StatusBadRequest, "Foto é obrigatória")
		return
	}

	e := domain.Employee{
		FullName:     r.FormValue("fullName"),
		TagName:      r.FormValue("tagName"),
		TagLastName:  r.FormValue("tagLastName"),
		JobFunctions: r.FormValue("jobFunctions"),
		Birthday:     r.FormValue("birthday"),
		Status:       domain.StatusActive,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.employees {
		if strings.EqualFold(existing.FullName, e.FullName) {
			writeMessage(w, http.StatusConflict, "Funcionário já cadastrado")
			return
		}
	}
	e.ID = domain.ID(b.nextID)
	e.PhotoURL = fmt.Sprintf("/uploads/%d.png", b.nextID)
	b.nextID++
	b.employees[int(e.ID)] = e

	writeJSON(w, http.StatusCreated, e)
}

func (b *FakeBackend) update(w http.ResponseWriter, r *http.Request, body []byte) {
	var patch map[string]interface{}
	if err := json.Unmarshal(body, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.lookup(w, r)
	if !ok {
		return
	}

	current := map[string]interface{}{}
	raw, _ := json.Marshal(e)
	_ = json.Unmarshal(raw, &current)
	for k, v := range patch {
		current[k] = v
	}
	merged, _ := json.Marshal(current)

	var updated domain.Employee
	if err := json.Unmarshal(merged, &updated); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	updated.ID = e.ID
	b.employees[int(e.ID)] = updated

	writeJSON(w, http.StatusOK, updated)
}

func (b *FakeBackend) delete(w http.ResponseWriter, r *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.lookup(w, r)
	if !ok {
		return
	}
	delete(b.employees, int(e.ID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Funcionário removido com sucesso",
		"deletedId": int(e.ID),
	})
}

func (b *FakeBackend) pdf(kind string) func(http.ResponseWriter, *http.Request, []byte) {
	return func(w http.ResponseWriter, r *http.Request, _ []byte) {
		b.mu.Lock()
		e, ok := b.lookup(w, r)
		b.mu.Unlock()
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprintf(w, "%%PDF-1.4 %s %d", kind, e.ID)
	}
}

func (b *FakeBackend) badges(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		EmployeeIDs []int `json:"employeeIds"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.EmployeeIDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "employeeIds é obrigatório")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	fmt.Fprintf(w, "%%PDF-1.4 badges %v", req.EmployeeIDs)
}

func (b *FakeBackend) export(w http.ResponseWriter, r *http.Request, _ []byte) {
	format := r.URL.Query().Get("format")
	status := r.URL.Query().Get("status")

	b.mu.Lock()
	var rows []domain.Employee
	for _, e := range b.sorted() {
		if status == "" || string(e.Status) == status {
			rows = append(rows, e)
		}
	}
	b.mu.Unlock()

	switch format {
	case "json":
		writeJSON(w, http.StatusOK, rows)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprintln(w, "id,fullName,status")
		for _, e := range rows {
			fmt.Fprintf(w, "%d,%s,%s\n", e.ID, e.FullName, e.Status)
		}
	default:
		writeMessage(w, http.StatusBadRequest, "Formato inválido")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": message})
}
