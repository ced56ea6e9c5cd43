package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/service/person"
	"github.com/FordLabs/PeopleMover/internal/service/product"
	"github.com/FordLabs/PeopleMover/internal/service/role"
	"github.com/FordLabs/PeopleMover/internal/service/tag"
)

func (r *Router) handleListPeople(w http.ResponseWriter, req *http.Request) {
	spaceUUID := mux.Vars(req)["uuid"]
	people, err := r.services.People.Search(req.Context(), spaceUUID, req.URL.Query().Get("q"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (r *Router) handleCountPeople(w http.ResponseWriter, req *http.Request) {
	total, err := r.services.People.Count(req.Context(), mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (r *Router) handleCreatePerson(w http.ResponseWriter, req *http.Request) {
	var payload person.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.services.People.Create(req.Context(), mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handleUpdatePerson(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload person.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.services.People.Update(req.Context(), mux.Vars(req)["uuid"], id, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeletePerson(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if err := r.services.People.Delete(req.Context(), mux.Vars(req)["uuid"], id); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *Router) handleListProducts(w http.ResponseWriter, req *http.Request) {
	var date *domain.Date
	if raw := strings.TrimSpace(req.URL.Query().Get("requestedDate")); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			r.writeServiceError(w, req, fmt.Errorf("%w: invalid requestedDate %q", repository.ErrInvalidArgument, raw))
			return
		}
		if err := r.checkDate(req, parsed); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		date = &parsed
	}
	products, err := r.services.Products.List(req.Context(), mux.Vars(req)["uuid"], date)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (r *Router) handleCreateProduct(w http.ResponseWriter, req *http.Request) {
	var payload product.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.services.Products.Create(req.Context(), mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handleUpdateProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload product.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.services.Products.Update(req.Context(), mux.Vars(req)["uuid"], id, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if err := r.services.Products.Delete(req.Context(), mux.Vars(req)["uuid"], id); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *Router) handleColors(w http.ResponseWriter, req *http.Request) {
	colors, err := r.services.Roles.Colors(req.Context())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, colors)
}

func (r *Router) handleListRoles(w http.ResponseWriter, req *http.Request) {
	roles, err := r.services.Roles.List(req.Context(), mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (r *Router) handleCreateRole(w http.ResponseWriter, req *http.Request) {
	var payload role.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.services.Roles.Create(req.Context(), mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handleUpdateRole(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload role.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.services.Roles.Update(req.Context(), mux.Vars(req)["uuid"], id, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteRole(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if err := r.services.Roles.Delete(req.Context(), mux.Vars(req)["uuid"], id); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// tagKind maps the {kind} path segment, e.g. "location-tags", to a tag kind.
func tagKind(req *http.Request) (domain.TagKind, error) {
	raw := strings.TrimSuffix(mux.Vars(req)["kind"], "-tags")
	kind, err := domain.ParseTagKind(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrInvalidArgument, err)
	}
	return kind, nil
}

func (r *Router) handleListTags(w http.ResponseWriter, req *http.Request) {
	kind, err := tagKind(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	tags, err := r.services.Tags.List(req.Context(), kind, mux.Vars(req)["uuid"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (r *Router) handleCreateTag(w http.ResponseWriter, req *http.Request) {
	kind, err := tagKind(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload tag.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.services.Tags.Create(req.Context(), kind, mux.Vars(req)["uuid"], payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handleUpdateTag(w http.ResponseWriter, req *http.Request) {
	kind, err := tagKind(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	var payload tag.Request
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.services.Tags.Update(req.Context(), kind, mux.Vars(req)["uuid"], id, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteTag(w http.ResponseWriter, req *http.Request) {
	kind, err := tagKind(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	id, err := pathID(req, "id")
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if err := r.services.Tags.Delete(req.Context(), kind, mux.Vars(req)["uuid"], id); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
