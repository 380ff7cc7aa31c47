// Package rest is the HTTP transport: a chi router exposing the account and
// authentication endpoints as JSON.
package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/usersvc/internal/logging"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// UserService is the subset of services.UserService the handlers need.
type UserService interface {
	Create(ctx context.Context, in models.UserCreate) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	Update(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id int64) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Token, error)
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// ProbeService backs the test and health endpoints.
type ProbeService interface {
	Test(ctx context.Context) (*models.Greeting, error)
	Ping(ctx context.Context) error
}

// defaultListLimit applies when the limit query parameter is absent.
// An explicit limit=0 is passed through and yields an empty page.
const defaultListLimit = 100

type Handlers struct {
	users  UserService
	probe  ProbeService
	logger logging.Logger
}

func NewHandlers(u UserService, p ProbeService, l logging.Logger) *Handlers {
	return &Handlers{users: u, probe: p, logger: l}
}

func (s *Handlers) Test(w http.ResponseWriter, r *http.Request) {
	g, err := s.probe.Test(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.probe.Ping(ctx); err != nil {
		s.logger.Warn(r.Context(), "database ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "ok"})
}

func (s *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if err := decodeAndValidate(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.UserLogin
	if err := decodeAndValidate(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.users.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r.Context())))
}

func (s *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var in models.UserUpdate
	if err := decodeAndValidate(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	me := currentUser(r.Context())
	u, err := s.users.Update(r.Context(), me.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, newHTTPError(http.StatusNotFound, "User not found"))
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	us, err := s.users.List(r.Context(), skip, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(us))
}

func (s *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.users.Get)
}

func (s *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.users.Delete)
}

func (s *Handlers) byID(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*models.User, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, newHTTPError(http.StatusBadRequest, "Invalid user id", FieldError{Field: "id", Error: "must be an integer"}))
		return
	}

	u, err := op(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, newHTTPError(http.StatusNotFound, "User not found"))
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, newHTTPError(http.StatusBadRequest, "Invalid query parameter", FieldError{Field: key, Error: "must be a non-negative integer"})
	}
	return v, nil
}
