package dto

import (
	"time"

	"github.com/google/uuid"

	"signaware-be/internal/entity"
)

type CreateDocumentRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=255"`
	Content          string `json:"content" validate:"required,min=1"`
	Type             string `json:"type" validate:"omitempty,oneof=terms_of_service privacy_policy contract agreement other"`
	OriginalFileName string `json:"original_file_name" validate:"omitempty,max=255"`
	MimeType         string `json:"mime_type" validate:"omitempty,max=100"`
}

type UpdateDocumentRequest struct {
	Title   string `json:"title" validate:"omitempty,min=1,max=255"`
	Content string `json:"content" validate:"omitempty,min=1"`
	Type    string `json:"type" validate:"omitempty,oneof=terms_of_service privacy_policy contract agreement other"`
}

type ListDocumentsQuery struct {
	Type   string `query:"type" validate:"omitempty,oneof=terms_of_service privacy_policy contract agreement other"`
	Status string `query:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type DocumentResponse struct {
	Id                    uuid.UUID                `json:"id"`
	Title                 string                   `json:"title"`
	Content               string                   `json:"content"`
	OriginalFileName      *string                  `json:"original_file_name,omitempty"`
	MimeType              *string                  `json:"mime_type,omitempty"`
	Type                  string                   `json:"type"`
	Status                string                   `json:"status"`
	Analysis              *entity.DocumentAnalysis `json:"analysis,omitempty"`
	MaskedContent         *entity.MaskedContent    `json:"masked_content,omitempty"`
	ProcessingStartedAt   *time.Time               `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time               `json:"processing_completed_at,omitempty"`
	ErrorMessage          *string                  `json:"error_message,omitempty"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// DocumentSummaryResponse is the list-view shape: content omitted so the
// listing stays light even for large documents.
type DocumentSummaryResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	RiskScore *float64  `json:"risk_score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Documents []DocumentSummaryResponse `json:"documents"`
	Total     int64                     `json:"total"`
	Page      int                       `json:"page"`
	Limit     int                       `json:"limit"`
}

type AnalyzeDocumentRequest struct {
	UseMaskedContent *bool `json:"use_masked_content,omitempty"`
}

// AnalyzeDocumentMessage is the queue payload that schedules a document
// analysis job.
type AnalyzeDocumentMessage struct {
	DocumentId       uuid.UUID `json:"document_id"`
	UseMaskedContent bool      `json:"use_masked_content"`
}
