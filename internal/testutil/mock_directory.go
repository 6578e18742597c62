// Package testutil provides testing utilities for the user directory.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
)

// MockResponse defines a canned response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockDirectory is a configurable mock directory API server. By default it
// serves pages from an in-memory list with the real API's windowing rules.
type MockDirectory struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	users    []users.User
	nextID   int64

	// Tracking
	RequestCount int
	LastQuery    map[string]string
	LastHeader   http.Header
}

// NewMockDirectory creates a mock server holding the given names.
func NewMockDirectory(names ...string) *MockDirectory {
	mock := &MockDirectory{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		nextID:   1,
	}
	for _, name := range names {
		mock.add(name)
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastHeader = r.Header.Clone()
		mock.LastQuery = map[string]string{}
		for key := range r.URL.Query() {
			mock.LastQuery[key] = r.URL.Query().Get(key)
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockDirectory) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDirectory) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and custom handlers.
func (m *MockDirectory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
	m.LastHeader = nil
	m.handlers = make(map[string]func(w http.ResponseWriter, r *http.Request))
}

// SetHandler sets a custom handler for a specific path.
func (m *MockDirectory) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockDirectory) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockDirectory) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query parameter values of the last request.
func (m *MockDirectory) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// Users returns a copy of the stored users in page order.
func (m *MockDirectory) Users() []users.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.users)
}

func (m *MockDirectory) add(name string) users.User {
	u := users.User{ID: m.nextID, Name: name, CreatedAt: time.Now().UTC()}
	m.nextID++
	i, _ := slices.BinarySearchFunc(m.users, u, users.Compare)
	m.users = slices.Insert(m.users, i, u)
	return u
}

// defaultHandler serves the directory routes from the in-memory list.
func (m *MockDirectory) defaultHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/users":
		m.servePage(w, users.PageRequest{Page: users.ParsePage(r.URL.Query().Get("page"))})
	case r.Method == http.MethodGet && r.URL.Path == "/api/users/by-letter":
		letter, err := users.NormalizeLetter(r.URL.Query().Get("letter"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid letter parameter"})
			return
		}
		m.servePage(w, users.PageRequest{Page: users.ParsePage(r.URL.Query().Get("page")), Letter: letter})
	case r.Method == http.MethodPost && r.URL.Path == "/api/users":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		name, err := users.ValidateName(body.Name)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid name parameter"})
			return
		}
		m.mu.Lock()
		u := m.add(name)
		m.mu.Unlock()
		writeJSON(w, http.StatusOK, u)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockDirectory) servePage(w http.ResponseWriter, req users.PageRequest) {
	offset, limit := req.Window()

	m.mu.RLock()
	page := make([]users.User, 0, limit)
	skipped := 0
	for _, u := range m.users {
		if req.Letter != "" && u.Initial() != req.Letter {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(page) == limit {
			break
		}
		page = append(page, u)
	}
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, users.PageResponse{Users: page})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a plain-text 500 response like the API's.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error\n",
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

// NewBareArrayResponse creates a 200 response whose body is a bare array
// instead of the wrapped page object.
func NewBareArrayResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[{"id":1,"name":"Alice","createdAt":"2024-01-01T00:00:00Z"}]`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewPageResponse creates a 200 response with the given JSON body.
func NewPageResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
