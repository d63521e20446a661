package events

import (
	"time"

	"github.com/google/uuid"

	"signaware-be/internal/constant"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func newBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func NewUserRegisteredEvent(userId uuid.UUID, email string) Event {
	return newBaseEvent(constant.EventUserRegistered, map[string]interface{}{
		"user_id": userId.String(),
		"email":   email,
	})
}

func NewUserLoginEvent(userId uuid.UUID, email string) Event {
	return newBaseEvent(constant.EventUserLogin, map[string]interface{}{
		"user_id": userId.String(),
		"email":   email,
	})
}

func NewUserDeletedEvent(userId uuid.UUID) Event {
	return newBaseEvent(constant.EventUserDeleted, map[string]interface{}{
		"user_id": userId.String(),
	})
}

func NewDocumentAnalyzedEvent(documentId, userId uuid.UUID, riskScore float64) Event {
	return newBaseEvent(constant.EventDocumentAnalyzed, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     userId.String(),
		"risk_score":  riskScore,
	})
}

func NewDocumentAnalysisFailedEvent(documentId, userId uuid.UUID, reason string) Event {
	return newBaseEvent(constant.EventDocumentAnalysisFailed, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     userId.String(),
		"reason":      reason,
	})
}

func NewDocumentMaskedEvent(documentId, userId uuid.UUID, modelUsed string) Event {
	return newBaseEvent(constant.EventDocumentMasked, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     userId.String(),
		"model_used":  modelUsed,
	})
}
