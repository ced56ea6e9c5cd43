package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/service/space"
)

func (r *Router) handleListSpaces(w http.ResponseWriter, req *http.Request) {
	info, _ := authInfoFromContext(req.Context())
	spaces, err := r.services.Spaces.ListForUser(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (r *Router) handleCreateSpace(w http.ResponseWriter, req *http.Request) {
	var payload space.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for space creation", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	created, err := r.services.Spaces.Create(req.Context(), info.UserID, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleGetSpace(w http.ResponseWriter, req *http.Request) {
	found, err := r.services.Spaces.Get(req.Context(), mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (r *Router) handleUpdateSpace(w http.ResponseWriter, req *http.Request) {
	var payload space.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.services.Spaces.Update(req.Context(), mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteSpace(w http.ResponseWriter, req *http.Request) {
	if err := r.services.Spaces.Delete(req.Context(), mux.Vars(req)["uuid"]); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListSpaceUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.services.Spaces.Users(req.Context(), mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (r *Router) handleInviteUsers(w http.ResponseWriter, req *http.Request) {
	var payload space.InviteRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	added, err := r.services.Spaces.Invite(req.Context(), mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, added)
}

func (r *Router) handleRemoveUser(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	if err := r.services.Spaces.RemoveUser(req.Context(), vars["uuid"], vars["userId"]); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
