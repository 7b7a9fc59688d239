package domain

import "time"

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Turn is one appended conversation message. CreatedAt is assigned by the
// server and defines turn order.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
