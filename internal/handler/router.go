package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	botHandler "github.com/renzhou/botdeck/backend/internal/handler/bot"
	conversationHandler "github.com/renzhou/botdeck/backend/internal/handler/conversation"
	embedHandler "github.com/renzhou/botdeck/backend/internal/handler/embed"
	relayHandler "github.com/renzhou/botdeck/backend/internal/handler/relay"
	middlewarePkg "github.com/renzhou/botdeck/backend/internal/middleware"
	botModel "github.com/renzhou/botdeck/backend/internal/model/bot"
	chatService "github.com/renzhou/botdeck/backend/internal/service/chat"
	"github.com/renzhou/botdeck/backend/internal/service/inference"
	"github.com/renzhou/botdeck/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. provider may be nil when no
// upstream credential is configured; rateLimiter may be nil to disable
// relay throttling.
func NewRouter(bots botModel.Store, transcripts *chatService.Service, provider inference.Provider, rateLimiter *middlewarePkg.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	embedH := embedHandler.New()
	embedH.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	relayH := relayHandler.New(provider, bots, transcripts)
	botH := botHandler.New(bots)
	conversationH := conversationHandler.New(transcripts)

	r.Route("/api", func(api chi.Router) {
		botH.RegisterRoutes(api)
		conversationH.RegisterRoutes(api)

		if rateLimiter != nil {
			api.Group(func(limited chi.Router) {
				limited.Use(rateLimiter.Handler)
				relayH.RegisterRoutes(limited)
			})
		} else {
			relayH.RegisterRoutes(api)
		}
	})

	return r
}
