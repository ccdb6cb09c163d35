package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/renzhou/botdeck/backend/internal/config"
	"github.com/renzhou/botdeck/backend/internal/handler"
	"github.com/renzhou/botdeck/backend/internal/middleware"
	botModel "github.com/renzhou/botdeck/backend/internal/model/bot"
	chatService "github.com/renzhou/botdeck/backend/internal/service/chat"
	"github.com/renzhou/botdeck/backend/internal/service/inference"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	bots, err := newBotStore(cfg.BotStore)
	if err != nil {
		log.Fatalf("failed to initialize bot store: %v", err)
	}

	transcripts := chatService.NewService()

	provider := newProvider(ctx, cfg, bots)
	if provider == nil {
		log.Println("no upstream provider configured - relay requests will fail until HF_TOKEN or ARK_API_KEY is set")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		defer rateLimiter.Close()
	}

	router := handler.NewRouter(bots, transcripts, provider, rateLimiter)

	startServer(ctx, cfg.Server, router)
}

// newBotStore selects the configured bot configuration source. The memory
// store ships with seed bots so the widget works out of the box.
func newBotStore(cfg config.BotStoreConfig) (botModel.Store, error) {
	switch cfg.Driver {
	case config.BotStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Println("using redis bot store")
		return botModel.NewRedisStore(redis.NewClient(opts), cfg.RedisTTL), nil
	default:
		log.Println("using in-memory bot store with seed bots")
		return botModel.NewMemoryStore(botModel.Seed()), nil
	}
}

// newProvider builds the upstream inference path: the preferred provider
// first, any other configured provider as a fallback leg.
func newProvider(ctx context.Context, cfg *config.Config, bots botModel.Store) inference.Provider {
	var providers []inference.Provider

	addHuggingFace := func() {
		if !cfg.Upstream.Enabled() {
			return
		}
		providers = append(providers, inference.NewHuggingFace(cfg.Upstream))
		log.Printf("huggingface provider enabled (stream=%v)", cfg.Upstream.Stream)
	}

	addArk := func() {
		if !cfg.Ark.Enabled() {
			return
		}
		ark, err := inference.NewArk(ctx, bots, cfg.Ark, cfg.Upstream.Stream)
		if err != nil {
			log.Printf("warning: failed to initialize ark provider: %v", err)
			return
		}
		providers = append(providers, ark)
		log.Println("ark provider enabled")
	}

	if cfg.Upstream.Provider == config.ProviderArk {
		addArk()
		addHuggingFace()
	} else {
		addHuggingFace()
		addArk()
	}

	switch len(providers) {
	case 0:
		return nil
	case 1:
		return providers[0]
	default:
		return inference.NewFallbackChain(providers...)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("botdeck backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
