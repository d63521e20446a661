package grounding

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"signaware-be/internal/entity"
)

func analyzedDocument() *entity.Document {
	return &entity.Document{
		Id:    uuid.New(),
		Title: "Service Agreement",
		Type:  "contract",
		Analysis: &entity.DocumentAnalysis{
			Summary:          "A standard service agreement.",
			RiskAssessment:   "Moderate risk overall.",
			HiddenClauses:    []string{"Auto-renewal after 12 months"},
			RedFlags:         []string{"Unilateral fee changes"},
			RiskScore:        3,
			ConfidenceRating: 85,
		},
	}
}

func TestContextFor_RendersAnalysis(t *testing.T) {
	g := NewGrounder(nil, nil)
	text := g.ContextFor(context.Background(), analyzedDocument())

	assert.Contains(t, text, "Service Agreement")
	assert.Contains(t, text, "A standard service agreement.")
	assert.Contains(t, text, "Auto-renewal after 12 months")
	assert.Contains(t, text, "Unilateral fee changes")
	assert.Contains(t, text, "3.0/5")
}

func TestContextFor_UnanalyzedDocument(t *testing.T) {
	g := NewGrounder(nil, nil)
	doc := &entity.Document{Id: uuid.New(), Title: "Pending", Type: "other"}

	assert.Equal(t, NoAnalysisNotice, g.ContextFor(context.Background(), doc))
}

func TestContextFor_OmitsEmptySections(t *testing.T) {
	doc := analyzedDocument()
	doc.Analysis.Loopholes = nil
	doc.Analysis.KeyConcerns = nil

	g := NewGrounder(nil, nil)
	text := g.ContextFor(context.Background(), doc)

	assert.NotContains(t, text, "Loopholes")
	assert.NotContains(t, text, "Key Concerns")
}
