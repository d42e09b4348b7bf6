package http

import (
	"net/http"

	"github.com/aretw0/abacus/pkg/history"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

func (s *Server) saveOperation(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var in history.OperationInput
	if !s.decode(w, r, &in) {
		return
	}
	op, err := s.history.Save(r.Context(), user.ID, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Operation saved successfully",
		"operation": op,
	})
}

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	// Unparseable values fall back to the defaults, like absent ones.
	var page, limit int
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		page = 0
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		limit = 0
	}

	result, err := s.history.List(r.Context(), user.ID, page, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Operations retrieved successfully",
		"operations": result.Operations,
		"pagination": result.Pagination,
	})
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	stats, err := s.history.Statistics(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Statistics retrieved successfully",
		"statistics": stats,
	})
}

func (s *Server) deleteOperation(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID", "The operation ID must be a number")
		return
	}

	if err := s.history.Delete(r.Context(), user.ID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Operation deleted successfully",
		"operationId": id,
	})
}

func (s *Server) clearOperations(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	n, err := s.history.Clear(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "All operations deleted successfully",
		"deletedOperations": n,
	})
}
