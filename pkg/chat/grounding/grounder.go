package grounding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"signaware-be/internal/entity"
	"signaware-be/internal/pkg/logger"
)

// NoAnalysisNotice is the grounding text used when a document has not been
// analyzed yet, so the assistant can tell the user to run analysis first.
const NoAnalysisNotice = "No analysis is available for this document yet. " +
	"Politely tell the user that the document must be analyzed before you can discuss it."

const cacheTTL = 30 * time.Minute

// Grounder renders a document's stored analysis into the context text the
// chat system prompt is grounded on. Rendered contexts are cached in Redis;
// a nil client disables caching.
type Grounder struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewGrounder(rdb *redis.Client, log logger.ILogger) *Grounder {
	return &Grounder{rdb: rdb, log: log}
}

func cacheKey(documentId uuid.UUID) string {
	return "chat:grounding:" + documentId.String()
}

// ContextFor returns the grounding context for a document.
func (g *Grounder) ContextFor(ctx context.Context, doc *entity.Document) string {
	if doc.Analysis == nil {
		return NoAnalysisNotice
	}

	if g.rdb != nil {
		cached, err := g.rdb.Get(ctx, cacheKey(doc.Id)).Result()
		if err == nil {
			return cached
		}
		if err != redis.Nil {
			g.log.Warn("GROUNDING", "redis lookup failed", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
		}
	}

	rendered := render(doc)

	if g.rdb != nil {
		if err := g.rdb.Set(ctx, cacheKey(doc.Id), rendered, cacheTTL).Err(); err != nil {
			g.log.Warn("GROUNDING", "redis store failed", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
		}
	}

	return rendered
}

// Invalidate drops the cached context, e.g. after a re-analysis.
func (g *Grounder) Invalidate(ctx context.Context, documentId uuid.UUID) {
	if g.rdb == nil {
		return
	}
	if err := g.rdb.Del(ctx, cacheKey(documentId)).Err(); err != nil {
		g.log.Warn("GROUNDING", "redis invalidate failed", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}
}

func render(doc *entity.Document) string {
	a := doc.Analysis

	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s (%s)\n\n", doc.Title, doc.Type)
	fmt.Fprintf(&b, "Summary:\n%s\n\n", a.Summary)
	fmt.Fprintf(&b, "Risk Assessment:\n%s\n\n", a.RiskAssessment)
	fmt.Fprintf(&b, "Risk Score: %.1f/5 (confidence %.0f%%)\n", a.RiskScore, a.ConfidenceRating)

	writeList(&b, "Hidden Clauses", a.HiddenClauses)
	writeList(&b, "Loopholes", a.Loopholes)
	writeList(&b, "Red Flags", a.RedFlags)
	writeList(&b, "Key Concerns", a.KeyConcerns)

	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
