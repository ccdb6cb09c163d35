package bot

// Position anchors the widget launcher to one of the four screen corners.
type Position string

const (
	BottomRight Position = "bottom-right"
	BottomLeft  Position = "bottom-left"
	TopRight    Position = "top-right"
	TopLeft     Position = "top-left"
)

// ParsePosition maps a raw position value onto the corner enumeration,
// falling back to bottom-right for anything unrecognised.
func ParsePosition(raw string) Position {
	switch Position(raw) {
	case BottomRight, BottomLeft, TopRight, TopLeft:
		return Position(raw)
	default:
		return BottomRight
	}
}

// Bot captures the configuration a widget needs to render and operate.
// Records are immutable for the lifetime of one embed session; dashboard
// edits only become visible after the iframe reloads.
type Bot struct {
	ID             string   `json:"id"`
	APIKey         string   `json:"apiKey,omitempty"`
	DisplayName    string   `json:"displayName"`
	WelcomeMessage string   `json:"welcomeMessage"`
	ThemeColor     string   `json:"themeColor"`
	Position       Position `json:"position"`
	Model          string   `json:"model,omitempty"`
}

// PublicView is the browser-facing projection of a Bot. The API credential
// never leaves the server.
type PublicView struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	WelcomeMessage string   `json:"welcomeMessage"`
	ThemeColor     string   `json:"themeColor"`
	Position       Position `json:"position"`
}

// Public strips server-side fields before a record is sent to the embed page.
func (b Bot) Public() PublicView {
	return PublicView{
		ID:             b.ID,
		DisplayName:    b.DisplayName,
		WelcomeMessage: b.WelcomeMessage,
		ThemeColor:     b.ThemeColor,
		Position:       b.Position,
	}
}

// Seed provides the default bots used when no external store is configured.
func Seed() []Bot {
	return []Bot{
		{
			ID:             "support-bot",
			DisplayName:    "Support Assistant",
			WelcomeMessage: "Hi! How can I help you today?",
			ThemeColor:     "#3b82f6",
			Position:       BottomRight,
			Model:          "Qwen/Qwen3-4B-Thinking-2507",
		},
		{
			ID:             "sales-bot",
			DisplayName:    "Sales Assistant",
			WelcomeMessage: "Welcome! Looking for the right plan? Ask me anything.",
			ThemeColor:     "#10b981",
			Position:       BottomLeft,
			Model:          "Qwen/Qwen3-4B-Thinking-2507",
		},
		{
			ID:             "docs-bot",
			DisplayName:    "Docs Helper",
			WelcomeMessage: "Ask me about the documentation and I'll point you to the right page.",
			ThemeColor:     "#8b5cf6",
			Position:       BottomRight,
			Model:          "Qwen/Qwen3-4B-Thinking-2507",
		},
	}
}
