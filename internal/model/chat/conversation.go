package chat

import "time"

// Conversation groups the turns one widget iframe exchanged with a bot.
// It is anonymous; nothing ties it to an end-user identity.
type Conversation struct {
	ID        string    `json:"id"`
	BotID     string    `json:"botId"`
	CreatedAt time.Time `json:"createdAt"`
}
