package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/rs/zerolog"
)

// Error messages returned in 400 bodies.
const (
	msgInvalidLetter = "Invalid letter parameter"
	msgInvalidBody   = "Invalid request body"
	msgInvalidName   = "Invalid name parameter"
)

// Directory is the service surface the handlers call.
type Directory interface {
	ListUsers(ctx context.Context, req users.PageRequest) ([]users.User, error)
	CreateUser(ctx context.Context, name string) (users.User, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the directory routes.
type Handler struct {
	dir    Directory
	checks map[string]Pinger
	logger zerolog.Logger
}

// NewHandler creates a handler. checks are pinged by /ready, keyed by name.
func NewHandler(dir Directory, checks map[string]Pinger, logger zerolog.Logger) *Handler {
	if dir == nil {
		panic("api: directory cannot be nil")
	}
	return &Handler{dir: dir, checks: checks, logger: logger}
}

// Register installs all routes on mux, wrapped in the request middleware.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/users", h.instrument("/api/users", h.listUsers))
	mux.Handle("GET /api/users/by-letter", h.instrument("/api/users/by-letter", h.listUsersByLetter))
	mux.Handle("POST /api/users", h.instrument("/api/users", h.createUser))
	mux.Handle("GET /health", h.instrument("/health", Health))
	mux.Handle("GET /ready", h.instrument("/ready", h.ready))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	req := users.PageRequest{Page: users.ParsePage(r.URL.Query().Get("page"))}
	h.servePage(w, r, req)
}

func (h *Handler) listUsersByLetter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	letter, err := users.NormalizeLetter(q.Get("letter"))
	if err != nil {
		writeBadRequest(w, msgInvalidLetter)
		return
	}
	h.servePage(w, r, users.PageRequest{Page: users.ParsePage(q.Get("page")), Letter: letter})
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, req users.PageRequest) {
	list, err := h.dir.ListUsers(r.Context(), req)
	if err != nil {
		if errors.Is(err, users.ErrInvalidArgument) {
			writeBadRequest(w, msgInvalidLetter)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("request", req.String()).Msg("Error fetching users")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, users.PageResponse{Users: list})
}

type createUserRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}

	u, err := h.dir.CreateUser(r.Context(), body.Name)
	if err != nil {
		if errors.Is(err, users.ErrInvalidArgument) {
			writeBadRequest(w, msgInvalidName)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error creating user")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Health always answers 200 OK.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
