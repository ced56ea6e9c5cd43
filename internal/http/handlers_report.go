package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/service/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (r *Router) handlePeopleReport(w http.ResponseWriter, req *http.Request) {
	date, ok := r.dateInSpace(w, req)
	if !ok {
		return
	}
	spaceUUID := mux.Vars(req)["uuid"]
	rows, err := r.services.Reports.People(req.Context(), spaceUUID, date)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if !strings.EqualFold(req.URL.Query().Get("format"), "xlsx") {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	body, err := report.PeopleXLSX(rows)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="people-%s.xlsx"`, date))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (r *Router) handleSpaceReport(w http.ResponseWriter, req *http.Request) {
	info, _ := authInfoFromContext(req.Context())
	rows, err := r.services.Reports.Spaces(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (r *Router) handleUserReport(w http.ResponseWriter, req *http.Request) {
	info, _ := authInfoFromContext(req.Context())
	users, err := r.services.Reports.Users(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
