package bot

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	botModel "github.com/renzhou/botdeck/backend/internal/model/bot"
	"github.com/renzhou/botdeck/backend/pkg/utils"
)

// Handler exposes bot configuration lookups for the embed page. All
// responses use the public projection; API credentials stay on the server.
type Handler struct {
	bots botModel.Store
}

// New creates the bot handler.
func New(bots botModel.Store) *Handler {
	return &Handler{bots: bots}
}

// RegisterRoutes mounts the bot endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/bots", h.handleListBots)
	r.Get("/bots/{botID}", h.handleGetBot)
}

func (h *Handler) handleListBots(w http.ResponseWriter, r *http.Request) {
	bots, err := h.bots.List(r.Context())
	if err != nil {
		log.Printf("[bot] list failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "bot lookup failed")
		return
	}

	views := make([]botModel.PublicView, 0, len(bots))
	for _, b := range bots {
		views = append(views, b.Public())
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetBot(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")

	b, ok, err := h.bots.FindByID(r.Context(), botID)
	if err != nil {
		log.Printf("[bot] lookup failed for id=%s: %v", botID, err)
		utils.RespondError(w, http.StatusInternalServerError, "bot lookup failed")
		return
	}
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "bot not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, b.Public())
}
