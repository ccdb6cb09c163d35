package inference

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (s *stubProvider) Generate(_ context.Context, _ Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestFallbackChainPrimarySucceeds(t *testing.T) {
	primary := &stubProvider{reply: "from primary"}
	fallback := &stubProvider{reply: "from fallback"}
	chain := NewFallbackChain(primary, fallback)

	reply, err := chain.Generate(context.Background(), Request{BotID: "b", Message: "m"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "from primary" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called, got %d calls", fallback.calls)
	}
}

func TestFallbackChainFallsBack(t *testing.T) {
	primary := &stubProvider{err: errors.New("upstream down")}
	fallback := &stubProvider{reply: "from fallback"}
	chain := NewFallbackChain(primary, fallback)

	reply, err := chain.Generate(context.Background(), Request{BotID: "b", Message: "m"})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "from fallback" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestFallbackChainAllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := NewFallbackChain(&stubProvider{err: boom}, &stubProvider{err: boom})

	if _, err := chain.Generate(context.Background(), Request{BotID: "b", Message: "m"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestFallbackChainEmpty(t *testing.T) {
	chain := NewFallbackChain()

	if _, err := chain.Generate(context.Background(), Request{BotID: "b", Message: "m"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
