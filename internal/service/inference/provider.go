package inference

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// FallbackReply is returned whenever the upstream produced nothing usable.
// The embedded chat must never see an empty reply or a raw parse failure.
const FallbackReply = "I'm sorry, I couldn't come up with a response. Please try again."

// ErrNotConfigured signals a missing upstream credential. Handlers translate
// it into a generic server error without naming the credential.
var ErrNotConfigured = errors.New("upstream provider not configured")

// Request carries one user turn to an upstream provider. The bot identifier
// tags the request for logging and prompting; it never selects the model.
type Request struct {
	BotID   string
	Message string
}

// Provider generates one assembled reply for a user message. Implementations
// must bound their own wait on the upstream and must return a non-empty
// reply on success.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Normalize applies the reply post-processing shared by every provider:
// leading prompt echoes are stripped and blank replies are replaced with the
// fixed fallback.
func Normalize(input, reply string) string {
	reply = strings.TrimSpace(reply)
	input = strings.TrimSpace(input)

	if input != "" && strings.HasPrefix(reply, input) {
		reply = strings.TrimSpace(reply[len(input):])
	}

	if reply == "" {
		return FallbackReply
	}
	return reply
}

// FallbackChain tries each provider in order until one succeeds. Used when
// both the Hugging Face and Ark credentials are configured so a transient
// upstream outage does not take the widget down.
type FallbackChain struct {
	providers []Provider
}

// NewFallbackChain builds a chain over the supplied providers.
func NewFallbackChain(providers ...Provider) *FallbackChain {
	return &FallbackChain{providers: providers}
}

// Generate implements Provider.
func (c *FallbackChain) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNotConfigured
	}

	var lastErr error
	for i, p := range c.providers {
		reply, err := p.Generate(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if i < len(c.providers)-1 {
			log.Printf("[inference] provider %d failed, trying fallback: %v", i+1, err)
		}
	}

	return "", fmt.Errorf("all providers failed: %w", lastErr)
}
