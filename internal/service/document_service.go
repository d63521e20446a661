package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"signaware-be/internal/apperror"
	"signaware-be/internal/constant"
	"signaware-be/internal/dto"
	"signaware-be/internal/entity"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/pkg/chat/grounding"
	"signaware-be/pkg/events"
	"signaware-be/pkg/llm"
	pkgNats "signaware-be/pkg/nats"
	"signaware-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IDocumentService interface {
	CreateDocument(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	GetDocument(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error)
	ListDocuments(ctx context.Context, userId uuid.UUID, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error)
	UpdateDocument(ctx context.Context, userId, documentId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error)
	DeleteDocument(ctx context.Context, userId, documentId uuid.UUID) error

	// AnalyzeDocument queues an analysis job; RunAnalysis executes one.
	AnalyzeDocument(ctx context.Context, userId, documentId uuid.UUID, req *dto.AnalyzeDocumentRequest) (*dto.DocumentResponse, error)
	RunAnalysis(ctx context.Context, documentId uuid.UUID, useMaskedContent bool) error
	GetAnalysis(ctx context.Context, userId, documentId uuid.UUID) (*entity.DocumentAnalysis, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	analysisProvider llm.LLMProvider
	pubSub           *gochannel.GoChannel
	analyzeTopic     string
	eventPublisher   *pkgNats.Publisher
	grounder         *grounding.Grounder
	log              logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	analysisProvider llm.LLMProvider,
	pubSub *gochannel.GoChannel,
	analyzeTopic string,
	eventPublisher *pkgNats.Publisher,
	grounder *grounding.Grounder,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		analysisProvider: analysisProvider,
		pubSub:           pubSub,
		analyzeTopic:     analyzeTopic,
		eventPublisher:   eventPublisher,
		grounder:         grounder,
		log:              log,
	}
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:                    doc.Id,
		Title:                 doc.Title,
		Content:               doc.Content,
		OriginalFileName:      doc.OriginalFileName,
		MimeType:              doc.MimeType,
		Type:                  doc.Type,
		Status:                doc.Status,
		Analysis:              doc.Analysis,
		MaskedContent:         doc.MaskedContent,
		ProcessingStartedAt:   doc.ProcessingStartedAt,
		ProcessingCompletedAt: doc.ProcessingCompletedAt,
		ErrorMessage:          doc.ErrorMessage,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
}

// findOwned loads a document and enforces ownership. Somebody else's
// document is indistinguishable from a missing one.
func (s *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, apperror.Persistence("failed to load document", err)
	}
	if doc == nil || doc.UserId != userId {
		return nil, apperror.NotFound("document not found")
	}
	return doc, nil
}

func (s *documentService) CreateDocument(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	docType := req.Type
	if docType == "" {
		docType = constant.DocumentTypeOther
	}

	doc := &entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Type:      docType,
		Status:    constant.DocumentStatusPending,
		UserId:    userId,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if req.OriginalFileName != "" {
		doc.OriginalFileName = &req.OriginalFileName
	}
	if req.MimeType != "" {
		doc.MimeType = &req.MimeType
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, apperror.Persistence("failed to create document", err)
	}

	return toDocumentResponse(doc), nil
}

func (s *documentService) GetDocument(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) ListDocuments(ctx context.Context, userId uuid.UUID, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 20
	}

	filters := []specification.Specification{
		specification.Filter("user_id", userId),
	}
	if query.Type != "" {
		filters = append(filters, specification.ByDocumentType{Type: query.Type})
	}
	if query.Status != "" {
		filters = append(filters, specification.ByDocumentStatus{Status: query.Status})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.DocumentRepository().Count(ctx, filters...)
	if err != nil {
		return nil, apperror.Persistence("failed to count documents", err)
	}

	listSpecs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	docs, err := uow.DocumentRepository().FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, apperror.Persistence("failed to list documents", err)
	}

	summaries := make([]dto.DocumentSummaryResponse, len(docs))
	for i, doc := range docs {
		summary := dto.DocumentSummaryResponse{
			Id:        doc.Id,
			Title:     doc.Title,
			Type:      doc.Type,
			Status:    doc.Status,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		}
		if doc.Analysis != nil {
			score := doc.Analysis.RiskScore
			summary.RiskScore = &score
		}
		summaries[i] = summary
	}

	return &dto.ListDocumentsResponse{
		Documents: summaries,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, userId, documentId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.Content != "" && req.Content != doc.Content {
		doc.Content = req.Content
		contentChanged = true
	}
	if req.Type != "" {
		doc.Type = req.Type
	}

	// Edited content invalidates the previous analysis and masking.
	if contentChanged {
		doc.Analysis = nil
		doc.MaskedContent = nil
		doc.Status = constant.DocumentStatusPending
		doc.ProcessingStartedAt = nil
		doc.ProcessingCompletedAt = nil
		doc.ErrorMessage = nil
		s.grounder.Invalidate(ctx, doc.Id)
	}

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, apperror.Persistence("failed to update document", err)
	}

	return toDocumentResponse(doc), nil
}

func (s *documentService) DeleteDocument(ctx context.Context, userId, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwned(ctx, uow, userId, documentId); err != nil {
		return err
	}

	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return apperror.Persistence("failed to delete document", err)
	}
	s.grounder.Invalidate(ctx, documentId)
	return nil
}

func (s *documentService) AnalyzeDocument(ctx context.Context, userId, documentId uuid.UUID, req *dto.AnalyzeDocumentRequest) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	if doc.Status == constant.DocumentStatusProcessing {
		return nil, apperror.Conflict("analysis already in progress")
	}
	// A completed analysis stays valid until the content changes; updating
	// the content resets the status and clears the stored result.
	if doc.Status == constant.DocumentStatusCompleted {
		return nil, apperror.Conflict("document already analyzed")
	}

	// Prefer masked content when it exists, unless the caller opted out.
	useMasked := doc.MaskedContent != nil
	if req.UseMaskedContent != nil {
		useMasked = *req.UseMaskedContent && doc.MaskedContent != nil
	}

	now := time.Now()
	doc.Status = constant.DocumentStatusProcessing
	doc.ProcessingStartedAt = &now
	doc.ProcessingCompletedAt = nil
	doc.ErrorMessage = nil
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, apperror.Persistence("failed to mark document as processing", err)
	}

	payload, err := json.Marshal(dto.AnalyzeDocumentMessage{
		DocumentId:       documentId,
		UseMaskedContent: useMasked,
	})
	if err != nil {
		return nil, err
	}
	if err := s.pubSub.Publish(s.analyzeTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "failed to queue analysis job", err)
	}

	return toDocumentResponse(doc), nil
}

func (s *documentService) GetAnalysis(ctx context.Context, userId, documentId uuid.UUID) (*entity.DocumentAnalysis, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	if doc.Analysis == nil {
		return nil, apperror.NotFound("document has not been analyzed yet")
	}
	return doc.Analysis, nil
}

// RunAnalysis is invoked by the queue consumer. It drives the model,
// decodes the structured result and finalizes the document status.
func (s *documentService) RunAnalysis(ctx context.Context, documentId uuid.UUID, useMaskedContent bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return apperror.Persistence("failed to load document", err)
	}
	if doc == nil {
		return apperror.NotFound("document not found")
	}

	analysis, err := s.analyze(ctx, doc, useMaskedContent)
	if err != nil {
		s.finalizeFailure(ctx, uow, doc, err)
		return err
	}

	now := time.Now()
	doc.Analysis = analysis
	doc.Status = constant.DocumentStatusCompleted
	doc.ProcessingCompletedAt = &now
	doc.ErrorMessage = nil
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return apperror.Persistence("failed to store analysis", err)
	}

	// The grounding cache may hold a stale render from a prior analysis.
	s.grounder.Invalidate(ctx, doc.Id)

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewDocumentAnalyzedEvent(doc.Id, doc.UserId, analysis.RiskScore)); err != nil {
			s.log.Warn("DOCUMENT", "failed to publish analyzed event", map[string]interface{}{"error": err.Error()})
		}
	}

	s.log.Info("DOCUMENT", "analysis completed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"risk_score":  analysis.RiskScore,
	})
	return nil
}

func (s *documentService) analyze(ctx context.Context, doc *entity.Document, useMaskedContent bool) (*entity.DocumentAnalysis, error) {
	content := doc.Content
	contentSource := "original"
	contentDescription := "as uploaded"
	contentNote := ""
	if useMaskedContent && doc.MaskedContent != nil {
		content = doc.MaskedContent.MaskedContent
		contentSource = "masked"
		contentDescription = "PII has been masked for privacy"
		contentNote = "\nNote: personal information in this document has been replaced with placeholders like [NAME]; analyze the document structure and terms, not the placeholders."
	}

	prompt := fmt.Sprintf(constant.AnalysisPromptTemplate,
		doc.Title, doc.Type, contentSource, contentDescription, content, contentNote)

	reply, err := s.analysisProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, apperror.Upstream("analysis model request failed", err)
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		return nil, apperror.Upstream("analysis model returned an unparseable result", err)
	}
	analysis.AnalyzedAt = time.Now().UTC().Format(time.RFC3339)
	return analysis, nil
}

func (s *documentService) finalizeFailure(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, cause error) {
	now := time.Now()
	msg := cause.Error()
	doc.Status = constant.DocumentStatusFailed
	doc.ProcessingCompletedAt = &now
	doc.ErrorMessage = &msg
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		s.log.Error("DOCUMENT", "failed to record analysis failure", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewDocumentAnalysisFailedEvent(doc.Id, doc.UserId, msg)); err != nil {
			s.log.Warn("DOCUMENT", "failed to publish analysis-failed event", map[string]interface{}{"error": err.Error()})
		}
	}
}

// parseAnalysis decodes the model's JSON answer, tolerating reasoning
// blocks and stray markdown fences around the object.
func parseAnalysis(reply string) (*entity.DocumentAnalysis, error) {
	cleaned := utils.StripThinkingBlock(reply)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var analysis entity.DocumentAnalysis
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &analysis); err != nil {
		return nil, err
	}

	if analysis.RiskScore < 1 {
		analysis.RiskScore = 1
	}
	if analysis.RiskScore > 5 {
		analysis.RiskScore = 5
	}
	if analysis.ConfidenceRating < 0 {
		analysis.ConfidenceRating = 0
	}
	if analysis.ConfidenceRating > 100 {
		analysis.ConfidenceRating = 100
	}
	return &analysis, nil
}
