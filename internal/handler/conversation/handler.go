package conversation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/renzhou/botdeck/backend/internal/service/chat"
	"github.com/renzhou/botdeck/backend/pkg/utils"
)

// Handler serves recorded widget transcripts to the dashboard.
type Handler struct {
	transcripts *chatService.Service
}

// New creates the conversation handler.
func New(transcripts *chatService.Service) *Handler {
	return &Handler{transcripts: transcripts}
}

// RegisterRoutes mounts the transcript endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/bots/{botID}/conversations", h.handleListConversations)
	r.Get("/conversations/{conversationID}", h.handleGetTranscript)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")

	conversations, err := h.transcripts.ListByBot(r.Context(), botID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, conversations)
}

func (h *Handler) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.transcripts.Get(r.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	messages, err := h.transcripts.Transcript(r.Context(), conversationID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}
