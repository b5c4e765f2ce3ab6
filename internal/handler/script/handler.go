package script

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/optm-media/site-assistant/backend/internal/model/script"
	"github.com/optm-media/site-assistant/backend/pkg/utils"
)

// Handler serves the scripts a widget can run.
type Handler struct {
	scripts script.Store
}

func New(scripts script.Store) *Handler {
	return &Handler{scripts: scripts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/scripts", h.handleList)
	r.Get("/scripts/{scriptID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.scripts.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scripts.FindByID(chi.URLParam(r, "scriptID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "script not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sc)
}
