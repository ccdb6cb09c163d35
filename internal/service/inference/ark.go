package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/renzhou/botdeck/backend/internal/config"
	"github.com/renzhou/botdeck/backend/internal/model/bot"
)

// Ark relays prompts through a Volcengine Ark chat model. It exists for
// deployments that cannot reach the Hugging Face API and as the fallback leg
// of the provider chain.
type Ark struct {
	bots   bot.Store
	cfg    config.ArkConfig
	stream bool
	chain  compose.Runnable[map[string]any, *schema.Message]
}

// NewArk compiles the prompt chain for the configured Ark model.
func NewArk(ctx context.Context, bots bot.Store, cfg config.ArkConfig, stream bool) (*Ark, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	return &Ark{bots: bots, cfg: cfg, stream: stream, chain: runnable}, nil
}

// Generate implements Provider.
func (p *Ark) Generate(ctx context.Context, req Request) (string, error) {
	input := map[string]any{
		"system": p.systemPrompt(ctx, req.BotID),
		"query":  req.Message,
	}

	var content string
	if p.stream {
		reply, err := p.accumulateStream(ctx, input)
		if err != nil {
			return "", err
		}
		content = reply
	} else {
		response, err := p.chain.Invoke(ctx, input)
		if err != nil {
			return "", fmt.Errorf("run chat chain: %w", err)
		}
		content = response.Content
	}

	log.Printf("[inference] ark reply for bot=%s, length=%d", req.BotID, len(content))
	return Normalize(req.Message, content), nil
}

// accumulateStream reads the token stream to completion and concatenates it
// into a single reply.
func (p *Ark) accumulateStream(ctx context.Context, input map[string]any) (string, error) {
	stream, err := p.chain.Stream(ctx, input)
	if err != nil {
		return "", fmt.Errorf("stream chat chain: %w", err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return "", nil
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

func (p *Ark) systemPrompt(ctx context.Context, botID string) string {
	const base = "You are a concise, friendly website chat assistant. Answer in a few sentences."

	if p.bots == nil || botID == "" {
		return base
	}

	b, ok, err := p.bots.FindByID(ctx, botID)
	if err != nil || !ok {
		return base
	}

	return fmt.Sprintf("You are %s, a concise, friendly chat assistant embedded on a website. Answer in a few sentences.", b.DisplayName)
}
