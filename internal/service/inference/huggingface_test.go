package inference

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/renzhou/botdeck/backend/internal/config"
)

func upstreamConfig(url string, stream bool) config.UpstreamConfig {
	return config.UpstreamConfig{
		Provider: config.ProviderHuggingFace,
		Token:    "test-token",
		Model:    "test/model",
		BaseURL:  url,
		Stream:   stream,
		Timeout:  5 * time.Second,
	}
}

func TestDecodeReplyArrayShape(t *testing.T) {
	reply, ok := decodeReply([]byte(`[{"generated_text": "hello there"}]`))
	if !ok {
		t.Fatal("expected array shape to decode")
	}
	if reply != "hello there" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestDecodeReplyObjectShape(t *testing.T) {
	reply, ok := decodeReply([]byte(`{"generated_text": "hello there"}`))
	if !ok {
		t.Fatal("expected object shape to decode")
	}
	if reply != "hello there" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestDecodeReplyBareString(t *testing.T) {
	reply, ok := decodeReply([]byte(`"hello there"`))
	if !ok {
		t.Fatal("expected bare string to decode")
	}
	if reply != "hello there" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestDecodeReplyUnknownShape(t *testing.T) {
	for _, raw := range []string{`{"choices": []}`, `[]`, `42`, `not json at all`} {
		if _, ok := decodeReply([]byte(raw)); ok {
			t.Fatalf("expected %q to report unknown shape", raw)
		}
	}
}

func TestNormalizeStripsEcho(t *testing.T) {
	if got := Normalize("hello", "hello and more"); got != "and more" {
		t.Fatalf("expected echo stripped, got %q", got)
	}
}

func TestNormalizeEmptyReplyFallback(t *testing.T) {
	if got := Normalize("hello", "   "); got != FallbackReply {
		t.Fatalf("expected fallback, got %q", got)
	}
	// A reply that is nothing but the echo also falls back.
	if got := Normalize("hello", "hello"); got != FallbackReply {
		t.Fatalf("expected fallback for pure echo, got %q", got)
	}
}

func TestNormalizePassesThroughCleanReply(t *testing.T) {
	if got := Normalize("hello", "hi there!"); got != "hi there!" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestGenerateArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `[{"generated_text": "hi!"}]`)
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, false))
	reply, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "hi!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestGenerateUnknownShapeUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"completely": "different"}`)
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, false))
	reply, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != FallbackReply {
		t.Fatalf("expected fallback, got %q", reply)
	}
}

func TestGenerateUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, false))
	if _, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"}); err == nil {
		t.Fatal("expected error for upstream 503")
	}
}

func TestGenerateMissingCredential(t *testing.T) {
	cfg := upstreamConfig("http://localhost:0", false)
	cfg.Token = ""

	p := NewHuggingFace(cfg)
	if _, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateStreamedAccumulatesTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"token\": {\"text\": \"hi\"}}\n\n")
		fmt.Fprint(w, "data: {\"token\": {\"text\": \" there\"}}\n\n")
		fmt.Fprint(w, "data: {\"token\": {\"text\": \"!\"}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, true))
	reply, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "hi there!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestGenerateStreamedPrefersFinalText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"token\": {\"text\": \"partial\"}}\n\n")
		fmt.Fprint(w, "data: {\"token\": {\"text\": \"\"}, \"generated_text\": \"the whole reply\"}\n\n")
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, true))
	reply, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "the whole reply" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestGenerateStreamedEmptyStreamFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewHuggingFace(upstreamConfig(srv.URL, true))
	reply, err := p.Generate(context.Background(), Request{BotID: "support-bot", Message: "hello"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != FallbackReply {
		t.Fatalf("expected fallback, got %q", reply)
	}
}
