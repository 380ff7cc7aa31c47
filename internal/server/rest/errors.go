package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/usersvc/internal/common"
)

// FieldError is a per-field validation failure.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func newHTTPError(status int, message string, fields ...FieldError) *HTTPError {
	return &HTTPError{
		Code:    codeFor(status),
		Message: message,
		Status:  status,
		Errors:  fields,
	}
}

// codeFor turns "Bad Request" into "BAD_REQUEST".
func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// toHTTPError maps service errors onto responses. Anything unrecognised is
// reported as a 500 without leaking its text.
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, common.ErrorAlreadyExists):
		return newHTTPError(http.StatusBadRequest, "User with this email or username already exists")
	case errors.Is(err, common.ErrorInactiveUser):
		return newHTTPError(http.StatusBadRequest, "Inactive user")
	case errors.Is(err, common.ErrorUnauthorized):
		return newHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, common.ErrorForbidden):
		return newHTTPError(http.StatusForbidden, "The user doesn't have enough privileges")
	case errors.Is(err, common.ErrorNotFound):
		return newHTTPError(http.StatusNotFound, "User not found")
	default:
		return newHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)
	if he.Status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	if he.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, he.Status, he)
}
