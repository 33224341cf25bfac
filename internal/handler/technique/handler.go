package technique

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serenamente/serenbot/backend/internal/model/technique"
	"github.com/serenamente/serenbot/backend/pkg/utils"
)

// Handler serves the read-only technique catalog.
type Handler struct {
	techniques technique.Store
}

// New creates the technique handler.
func New(techniques technique.Store) *Handler {
	return &Handler{
		techniques: techniques,
	}
}

// RegisterRoutes registers the technique routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/techniques", h.handleListTechniques)
	r.Get("/techniques/{techniqueID}", h.handleGetTechnique)
}

func (h *Handler) handleListTechniques(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.techniques.List())
}

func (h *Handler) handleGetTechnique(w http.ResponseWriter, r *http.Request) {
	t, ok := h.techniques.FindByID(chi.URLParam(r, "techniqueID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "technique not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, t)
}
