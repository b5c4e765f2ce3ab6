package conversation

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the widget transcript.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	IsTyping  bool      `json:"isTyping,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
