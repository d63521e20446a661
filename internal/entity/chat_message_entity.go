// FILE: internal/entity/chat_message_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one turn half in a document conversation. Seq is assigned by
// the database on insert and is the authoritative ordering tiebreaker for
// messages created within the same timestamp.
type ChatMessage struct {
	Id         uuid.UUID
	Content    string
	Role       string
	SessionId  string
	DocumentId uuid.UUID
	UserId     uuid.UUID
	Metadata   map[string]interface{}
	Seq        int64
	CreatedAt  time.Time
}
