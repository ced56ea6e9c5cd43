package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/service/auth"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed", "error", err, "path", req.URL.Path)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", repository.ErrInvalidArgument)
	}
	return nil
}

func pathID(req *http.Request, name string) (int64, error) {
	raw := mux.Vars(req)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", repository.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

func pathDate(req *http.Request, name string) (domain.Date, error) {
	raw := mux.Vars(req)[name]
	date, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: invalid date %q", repository.ErrInvalidArgument, raw)
	}
	return date, nil
}
