package chat

import "time"

// Sender values for a conversation turn.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message records one turn of an embedded conversation for the dashboard's
// conversation log view.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}
