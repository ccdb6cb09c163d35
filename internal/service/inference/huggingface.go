package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/renzhou/botdeck/backend/internal/config"
)

// HuggingFace relays prompts to the Hugging Face inference API using one
// process-wide token and model. Responses arrive in several shapes depending
// on the hosted model; decodeReply normalizes all of them.
type HuggingFace struct {
	cfg    config.UpstreamConfig
	client *http.Client
}

// NewHuggingFace builds the provider. The HTTP client timeout doubles as the
// upper bound on a hung upstream.
func NewHuggingFace(cfg config.UpstreamConfig) *HuggingFace {
	return &HuggingFace{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate implements Provider.
func (p *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
	if !p.cfg.Enabled() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if p.cfg.Stream {
		return p.generateStreamed(ctx, req)
	}
	return p.generateOnce(ctx, req)
}

func (p *HuggingFace) generateOnce(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(map[string]any{
		"inputs": req.Message,
		"parameters": map[string]any{
			"return_full_text": false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal upstream request: %w", err)
	}

	resp, err := p.do(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	reply, ok := decodeReply(raw)
	if !ok {
		log.Printf("[inference] unrecognised upstream shape for bot=%s, using fallback", req.BotID)
		return FallbackReply, nil
	}

	return Normalize(req.Message, reply), nil
}

// generateStreamed consumes a token-by-token completion stream and collapses
// it into one reply. Tokens are not forwarded downstream from here; the relay
// responds once the stream ends.
func (p *HuggingFace) generateStreamed(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(map[string]any{
		"inputs": req.Message,
		"stream": true,
		"parameters": map[string]any{
			"return_full_text": false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal upstream request: %w", err)
	}

	resp, err := p.do(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var builder strings.Builder
	var final string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event struct {
			Token struct {
				Text string `json:"text"`
			} `json:"token"`
			GeneratedText *string `json:"generated_text"`
		}
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// Skip malformed chunks rather than aborting the whole reply.
			continue
		}

		builder.WriteString(event.Token.Text)
		if event.GeneratedText != nil && *event.GeneratedText != "" {
			final = *event.GeneratedText
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read upstream stream: %w", err)
	}

	// The closing event carries the assembled text; prefer it over our own
	// concatenation when present.
	reply := final
	if reply == "" {
		reply = builder.String()
	}

	return Normalize(req.Message, reply), nil
}

func (p *HuggingFace) do(ctx context.Context, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/models/%s", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	return resp, nil
}

// decodeReply extracts the generated text from the documented upstream
// shapes, tried in fixed priority order: an array of generation objects, a
// single generation object, then a bare string. Anything else reports !ok so
// the caller can substitute the fallback.
func decodeReply(raw []byte) (string, bool) {
	var arr []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return arr[0].GeneratedText, true
	}

	var obj struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.GeneratedText != "" {
		return obj.GeneratedText, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	return "", false
}
