package models

import "time"

// ConversationTurn is one (user input, assistant response) exchange within a
// session. Turns are append-only and ordered by Sequence.
type ConversationTurn struct {
	ID        string    `json:"id"` // session_id:sequence
	SessionID string    `json:"session_id"`
	Sequence  int       `json:"sequence"`
	UserInput string    `json:"user_input"`
	AIReply   string    `json:"ai_reply"`
	CreatedAt time.Time `json:"created_at"`
}
