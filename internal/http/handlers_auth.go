package httpx

import (
	"fmt"
	"net/http"

	"github.com/FordLabs/PeopleMover/internal/repository"
)

func (r *Router) handleAccessToken(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AccessCode string `json:"accessCode"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	resp, err := r.services.Auth.Exchange(req.Context(), payload.AccessCode)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleRefreshToken(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	resp, err := r.services.Auth.Refresh(req.Context(), payload.AccessToken)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleValidateToken(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	info, err := r.services.Auth.Validate(req.Context(), payload.AccessToken)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (r *Router) handleAuthenticate(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AccessToken string `json:"accessToken"`
		SpaceName   string `json:"spaceName"`
	}
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if payload.SpaceName == "" {
		r.writeServiceError(w, req, fmt.Errorf("%w: spaceName is required", repository.ErrInvalidArgument))
		return
	}
	if err := r.services.Auth.AuthenticateForSpace(req.Context(), payload.AccessToken, payload.SpaceName); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
