package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message    string    `json:"message" validate:"required,min=1"`
	SessionId  string    `json:"session_id" validate:"required,min=1,max=255"`
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}

// ChatStreamResult is what a completed turn reports back after the
// transcript has been committed.
type ChatStreamResult struct {
	SessionId   string     `json:"session_id"`
	MessageId   *uuid.UUID `json:"message_id,omitempty"`
	FullContent string     `json:"-"`
	Warning     string     `json:"warning,omitempty"`
}

type ChatMessageResponse struct {
	Id         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	SessionId  string    `json:"session_id"`
	DocumentId uuid.UUID `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionId string                `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
}

type SessionSummaryResponse struct {
	SessionId    string    `json:"session_id"`
	DocumentId   uuid.UUID `json:"document_id"`
	FirstMessage string    `json:"first_message"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DeleteSessionResponse struct {
	SessionId       string `json:"session_id"`
	DeletedMessages int64  `json:"deleted_messages"`
}
