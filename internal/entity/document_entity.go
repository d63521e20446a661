// FILE: internal/entity/document_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentAnalysis is the structured result produced by the analysis model
// and stored on the document's JSONB analysis column.
type DocumentAnalysis struct {
	Summary          string   `json:"summary"`
	HiddenClauses    []string `json:"hidden_clauses"`
	RiskAssessment   string   `json:"risk_assessment"`
	Loopholes        []string `json:"loopholes"`
	RedFlags         []string `json:"red_flags"`
	RiskScore        float64  `json:"risk_score"`
	ConfidenceRating float64  `json:"confidence_rating"`
	KeyConcerns      []string `json:"key_concerns"`
	AnalyzedAt       string   `json:"analyzed_at"`
}

// MaskedContent is the stored PII-masking payload for a document.
type MaskedContent struct {
	OriginalContent string `json:"original_content"`
	MaskedContent   string `json:"masked_content"`
	OriginalLength  int    `json:"original_length"`
	MaskedLength    int    `json:"masked_length"`
	MaskedAt        string `json:"masked_at"`
	ModelUsed       string `json:"model_used"`
}

type Document struct {
	Id                    uuid.UUID
	Title                 string
	Content               string
	OriginalFileName      *string
	MimeType              *string
	Type                  string
	Status                string
	Analysis              *DocumentAnalysis
	MaskedContent         *MaskedContent
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	ErrorMessage          *string
	UserId                uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
