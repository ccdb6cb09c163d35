package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/renzhou/botdeck/backend/internal/model/bot"
	"github.com/renzhou/botdeck/backend/internal/model/chat"
	chatService "github.com/renzhou/botdeck/backend/internal/service/chat"
	"github.com/renzhou/botdeck/backend/internal/service/inference"
	"github.com/renzhou/botdeck/backend/pkg/utils"
)

// Handler relays widget messages to the upstream inference provider and
// returns one normalized reply per request.
type Handler struct {
	provider    inference.Provider
	bots        bot.Store
	transcripts *chatService.Service
}

// New creates the relay handler. provider may be nil when no upstream is
// configured; requests then fail with a generic server error.
func New(provider inference.Provider, bots bot.Store, transcripts *chatService.Service) *Handler {
	return &Handler{
		provider:    provider,
		bots:        bots,
		transcripts: transcripts,
	}
}

// RegisterRoutes mounts the relay endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/stream", h.handleChatStream)
}

type chatRequest struct {
	BotID          string `json:"botId"`
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	BotID          string `json:"botId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.BotID = strings.TrimSpace(payload.BotID)
	payload.Message = strings.TrimSpace(payload.Message)
	if payload.BotID == "" || payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "botId and message are required")
		return
	}

	ctx := r.Context()
	if _, ok, err := h.bots.FindByID(ctx, payload.BotID); err != nil {
		log.Printf("[relay] bot lookup failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "bot lookup failed")
		return
	} else if !ok {
		utils.RespondError(w, http.StatusNotFound, "bot not found")
		return
	}

	if h.provider == nil {
		utils.RespondError(w, http.StatusInternalServerError, "chat service is not configured")
		return
	}

	conversationID := h.resolveConversation(ctx, payload)
	h.record(ctx, conversationID, chat.SenderUser, payload.Message)

	reply, err := h.provider.Generate(ctx, inference.Request{
		BotID:   payload.BotID,
		Message: payload.Message,
	})
	if err != nil {
		if errors.Is(err, inference.ErrNotConfigured) {
			utils.RespondError(w, http.StatusInternalServerError, "chat service is not configured")
			return
		}
		log.Printf("[relay] generation failed for bot=%s: %v", payload.BotID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate a reply")
		return
	}

	h.record(ctx, conversationID, chat.SenderBot, reply)

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:       reply,
		BotID:          payload.BotID,
		ConversationID: conversationID,
	})
}

// resolveConversation reuses the conversation the client named, or starts a
// fresh one. Transcript recording is best-effort; a failure here never blocks
// the reply.
func (h *Handler) resolveConversation(ctx context.Context, payload chatRequest) string {
	if h.transcripts == nil {
		return ""
	}

	if payload.ConversationID != "" {
		if _, err := h.transcripts.Get(ctx, payload.ConversationID); err == nil {
			return payload.ConversationID
		}
	}

	conv, err := h.transcripts.CreateConversation(ctx, payload.BotID)
	if err != nil {
		log.Printf("[relay] failed to create conversation: %v", err)
		return ""
	}
	return conv.ID
}

func (h *Handler) record(ctx context.Context, conversationID, sender, text string) {
	if h.transcripts == nil || conversationID == "" {
		return
	}
	if _, err := h.transcripts.Append(ctx, conversationID, sender, text); err != nil {
		log.Printf("[relay] failed to record %s message: %v", sender, err)
	}
}

// streamEvent is one SSE frame of the incremental-delivery endpoint.
type streamEvent struct {
	Event          string `json:"event"`
	Content        string `json:"content,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Finished       bool   `json:"finished,omitempty"`
	Error          string `json:"error,omitempty"`
}

// handleChatStream is the incremental-delivery variant of the relay. The
// embedded chat page uses plain POST /chat; this endpoint serves hosts that
// want the reply over SSE instead.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	botID := strings.TrimSpace(r.URL.Query().Get("botId"))
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if botID == "" || message == "" {
		utils.RespondError(w, http.StatusBadRequest, "botId and message query parameters are required")
		return
	}

	ctx := r.Context()
	if _, found, err := h.bots.FindByID(ctx, botID); err != nil {
		log.Printf("[relay] bot lookup failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "bot lookup failed")
		return
	} else if !found {
		utils.RespondError(w, http.StatusNotFound, "bot not found")
		return
	}

	if h.provider == nil {
		utils.RespondError(w, http.StatusInternalServerError, "chat service is not configured")
		return
	}

	utils.SetupSSEHeaders(w)

	conversationID := h.resolveConversation(ctx, chatRequest{
		BotID:          botID,
		ConversationID: strings.TrimSpace(r.URL.Query().Get("conversationId")),
	})
	h.record(ctx, conversationID, chat.SenderUser, message)

	utils.SendSSEChunk(w, flusher, streamEvent{
		Event:          "start",
		ConversationID: conversationID,
	})

	reply, err := h.provider.Generate(ctx, inference.Request{BotID: botID, Message: message})
	if err != nil {
		log.Printf("[relay] stream generation failed for bot=%s: %v", botID, err)
		utils.SendSSEChunk(w, flusher, streamEvent{
			Event: "error",
			Error: "failed to generate a reply",
		})
		return
	}

	h.record(ctx, conversationID, chat.SenderBot, reply)

	utils.SendSSEChunk(w, flusher, streamEvent{
		Event:          "message",
		Content:        reply,
		ConversationID: conversationID,
	})
	utils.SendSSEChunk(w, flusher, streamEvent{
		Event:          "end",
		ConversationID: conversationID,
		Finished:       true,
	})
}
