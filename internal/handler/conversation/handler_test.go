package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/renzhou/botdeck/backend/internal/model/chat"
	chatservice "github.com/renzhou/botdeck/backend/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	transcripts := chatservice.NewService()
	handler := New(transcripts)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, transcripts
}

func TestListConversationsForBot(t *testing.T) {
	r, transcripts := setupRouter()
	ctx := context.Background()

	if _, err := transcripts.CreateConversation(ctx, "support-bot"); err != nil {
		t.Fatalf("CreateConversation err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/bots/support-bot/conversations", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var conversations []chat.Conversation
	if err := json.Unmarshal(resp.Body.Bytes(), &conversations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
}

func TestGetTranscript(t *testing.T) {
	r, transcripts := setupRouter()
	ctx := context.Background()

	conv, err := transcripts.CreateConversation(ctx, "support-bot")
	if err != nil {
		t.Fatalf("CreateConversation err: %v", err)
	}
	if _, err := transcripts.Append(ctx, conv.ID, chat.SenderUser, "hello"); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Conversation chat.Conversation `json:"conversation"`
		Messages     []chat.Message    `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Conversation.ID != conv.ID {
		t.Fatalf("unexpected conversation: %+v", body.Conversation)
	}
	if len(body.Messages) != 1 || body.Messages[0].Text != "hello" {
		t.Fatalf("unexpected messages: %+v", body.Messages)
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/conversations/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
