package embed

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed assets/widget.js
var widgetJS []byte

//go:embed assets/chat.html
var chatHTML []byte

// Handler serves the widget loader script and the iframe chat page. Both are
// compiled into the binary so a deployment is a single artifact.
type Handler struct{}

// New creates the embed asset handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the embed assets at the paths the snippet expects.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/widget.js", h.handleWidgetScript)
	r.Get("/embed/chat", h.handleChatPage)
}

func (h *Handler) handleWidgetScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	// Host pages reference the script directly; keep the cache window short so
	// loader fixes roll out without touching embed snippets.
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(widgetJS)
}

func (h *Handler) handleChatPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(chatHTML)
}
