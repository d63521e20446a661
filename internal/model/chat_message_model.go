package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatMessage rows are append-only; there is no soft delete because the
// transcript either exists or the whole session was removed.
// Seq is a bigserial filled by the database on insert and backfilled into the
// struct via RETURNING; it totals-orders messages even when created_at ties.
type ChatMessage struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content    string    `gorm:"type:text;not null"`
	Role       string    `gorm:"type:varchar(20);not null;default:'user'"`
	SessionId  string    `gorm:"type:varchar(255);not null;index"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Metadata   datatypes.JSON
	Seq        int64     `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
