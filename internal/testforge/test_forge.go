// Package testforge provides an in-memory GitLab API for tests.
package testforge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/previewnote/internal/forge"
)

// FailMode defines how the test forge should behave
type FailMode int

const (
	FailModeNone FailMode = iota
	FailModeAuth
	FailModeServer
	FailModeRateLimit
	FailModeNotFound
)

// Request is one call received by the forge.
type Request struct {
	Method    string
	Path      string
	RequestID string
}

// TestForge serves the project, merge request and notes endpoints of the
// GitLab REST API v4.
type TestForge struct {
	mu sync.Mutex

	token    string
	projects map[string]forge.Project
	mrs      map[string]forge.MergeRequest
	notes    []forge.Note
	requests []Request

	failMode  FailMode
	failCount int
	nextNote  int

	server *httptest.Server
}

// New starts a TestForge accepting token and registers its shutdown with t.
func New(t testing.TB, token string) *TestForge {
	t.Helper()
	tf := &TestForge{
		token:    token,
		projects: map[string]forge.Project{},
		mrs:      map[string]forge.MergeRequest{},
		nextNote: 1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/projects/{id}", tf.getProject)
	mux.HandleFunc("GET /api/v4/projects/{id}/merge_requests/{iid}", tf.getMergeRequest)
	mux.HandleFunc("POST /api/v4/projects/{id}/merge_requests/{iid}/notes", tf.createNote)

	tf.server = httptest.NewServer(tf.record(mux))
	t.Cleanup(tf.server.Close)
	return tf
}

// URL returns the instance URL, without /api/v4.
func (tf *TestForge) URL() string { return tf.server.URL }

// Client returns an HTTP client for the server.
func (tf *TestForge) Client() *http.Client { return tf.server.Client() }

// AddProject registers a project under path with the given ID.
func (tf *TestForge) AddProject(id int, path string) forge.Project {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	p := forge.Project{ID: id, PathWithNamespace: path, WebURL: "https://gitlab.example.com/" + path}
	tf.projects[path] = p
	tf.projects[strconv.Itoa(id)] = p
	return p
}

// AddMergeRequest registers merge request iid on project.
func (tf *TestForge) AddMergeRequest(project forge.Project, iid int, title string) forge.MergeRequest {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	mr := forge.MergeRequest{
		ID:        project.ID*1000 + iid,
		IID:       iid,
		ProjectID: project.ID,
		Title:     title,
		State:     "opened",
		WebURL:    fmt.Sprintf("%s/-/merge_requests/%d", project.WebURL, iid),
	}
	tf.mrs[mrKey(project.ID, strconv.Itoa(iid))] = mr
	return mr
}

// SetFailMode makes the next count requests fail; count <= 0 fails every request.
func (tf *TestForge) SetFailMode(mode FailMode, count int) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.failMode = mode
	tf.failCount = count
}

// Notes returns the notes created so far.
func (tf *TestForge) Notes() []forge.Note {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return append([]forge.Note(nil), tf.notes...)
}

// Requests returns every request received so far.
func (tf *TestForge) Requests() []Request {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return append([]Request(nil), tf.requests...)
}

func (tf *TestForge) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tf.mu.Lock()
		tf.requests = append(tf.requests, Request{Method: r.Method, Path: r.URL.EscapedPath(), RequestID: r.Header.Get("X-Request-Id")})
		tf.mu.Unlock()

		if !tf.authorized(r) {
			writeError(w, http.StatusUnauthorized, "401 Unauthorized")
			return
		}
		if status, ok := tf.simulate(); !ok {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (tf *TestForge) authorized(r *http.Request) bool {
	return r.Header.Get("PRIVATE-TOKEN") == tf.token || r.Header.Get("Authorization") == "Bearer "+tf.token
}

// simulate checks for failure modes.
func (tf *TestForge) simulate() (int, bool) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if tf.failMode == FailModeNone {
		return 0, true
	}
	mode := tf.failMode
	if tf.failCount > 0 {
		tf.failCount--
		if tf.failCount == 0 {
			tf.failMode = FailModeNone
		}
	}
	switch mode {
	case FailModeAuth:
		return http.StatusForbidden, false
	case FailModeServer:
		return http.StatusBadGateway, false
	case FailModeRateLimit:
		return http.StatusTooManyRequests, false
	case FailModeNotFound:
		return http.StatusNotFound, false
	default:
		return 0, true
	}
}

func (tf *TestForge) getProject(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	p, ok := tf.projects[r.PathValue("id")]
	tf.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "404 Project Not Found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (tf *TestForge) getMergeRequest(w http.ResponseWriter, r *http.Request) {
	mr, ok := tf.lookupMR(r)
	if !ok {
		writeError(w, http.StatusNotFound, "404 Not found")
		return
	}
	writeJSON(w, http.StatusOK, mr)
}

func (tf *TestForge) createNote(w http.ResponseWriter, r *http.Request) {
	if _, ok := tf.lookupMR(r); !ok {
		writeError(w, http.StatusNotFound, "404 Not found")
		return
	}
	var req struct {
		Body *string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == nil {
		writeError(w, http.StatusBadRequest, "body is missing")
		return
	}

	tf.mu.Lock()
	n := forge.Note{ID: tf.nextNote, Body: *req.Body, CreatedAt: time.Now().UTC()}
	tf.nextNote++
	tf.notes = append(tf.notes, n)
	tf.mu.Unlock()
	writeJSON(w, http.StatusCreated, n)
}

func (tf *TestForge) lookupMR(r *http.Request) (forge.MergeRequest, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return forge.MergeRequest{}, false
	}
	tf.mu.Lock()
	defer tf.mu.Unlock()
	mr, ok := tf.mrs[mrKey(id, r.PathValue("iid"))]
	return mr, ok
}

func mrKey(projectID int, iid string) string {
	return strconv.Itoa(projectID) + "!" + iid
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
