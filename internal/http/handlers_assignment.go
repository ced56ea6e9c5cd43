package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

// dateInSpace reads {date} and applies the read-only date restriction.
func (r *Router) dateInSpace(w http.ResponseWriter, req *http.Request) (domain.Date, bool) {
	date, err := pathDate(req, "date")
	if err != nil {
		r.writeServiceError(w, req, err)
		return domain.Date{}, false
	}
	if err := r.checkDate(req, date); err != nil {
		r.writeServiceError(w, req, err)
		return domain.Date{}, false
	}
	return date, true
}

func (r *Router) handlePersonAssignments(w http.ResponseWriter, req *http.Request) {
	personID, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	date, ok := r.dateInSpace(w, req)
	if !ok {
		return
	}
	assignments, err := r.services.Assignments.ForPersonOnDate(req.Context(), mux.Vars(req)["uuid"], personID, date)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (r *Router) handleSpaceAssignments(w http.ResponseWriter, req *http.Request) {
	date, ok := r.dateInSpace(w, req)
	if !ok {
		return
	}
	assignments, err := r.services.Assignments.ForSpaceOnDate(req.Context(), mux.Vars(req)["uuid"], date)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (r *Router) handleEffectiveDates(w http.ResponseWriter, req *http.Request) {
	dates, err := r.services.Assignments.EffectiveDates(req.Context(), mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (r *Router) handleReassignments(w http.ResponseWriter, req *http.Request) {
	date, ok := r.dateInSpace(w, req)
	if !ok {
		return
	}
	moves, err := r.services.Assignments.ReassignmentsOnDate(req.Context(), mux.Vars(req)["uuid"], date)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, moves)
}

func (r *Router) handleCreateAssignments(w http.ResponseWriter, req *http.Request) {
	personID, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload domain.CreateAssignmentsRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.services.Assignments.CreateForDate(req.Context(), mux.Vars(req)["uuid"], personID, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handleRevertAssignments(w http.ResponseWriter, req *http.Request) {
	personID, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	date, err := pathDate(req, "date")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if err := r.services.Assignments.RevertForDate(req.Context(), mux.Vars(req)["uuid"], personID, date); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
