package contract

import (
	"context"

	"signaware-be/internal/entity"
	"signaware-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ListSessionIDs returns the distinct session identifiers a user has
	// opened against a document.
	ListSessionIDs(ctx context.Context, documentId, userId uuid.UUID) ([]string, error)

	// DeleteBySessionID removes a session's transcript and reports how many
	// messages were deleted.
	DeleteBySessionID(ctx context.Context, sessionId string, documentId, userId uuid.UUID) (int64, error)
}
