package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of a session history. It is never modified after it
// has been appended.
type Message struct {
	ID        string            `json:"id"`
	Sender    Sender            `json:"sender"`
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Locale    string            `json:"locale"`
	Category  Category          `json:"category,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
