package service

import (
	"context"
	"fmt"
	"time"

	"signaware-be/internal/apperror"
	"signaware-be/internal/constant"
	"signaware-be/internal/dto"
	"signaware-be/internal/entity"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/pkg/events"
	"signaware-be/pkg/llm"
	pkgNats "signaware-be/pkg/nats"
	"signaware-be/pkg/utils"

	"github.com/google/uuid"
)

type IPiiService interface {
	MaskText(ctx context.Context, req *dto.MaskTextRequest) (*dto.MaskTextResponse, error)
	MaskDocument(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error)
	GetMaskedContent(ctx context.Context, userId, documentId uuid.UUID) (*dto.MaskedContentResponse, error)
}

type piiService struct {
	uowFactory      unitofwork.RepositoryFactory
	maskingProvider llm.LLMProvider
	modelName       string
	eventPublisher  *pkgNats.Publisher
	log             logger.ILogger
}

func NewPiiService(
	uowFactory unitofwork.RepositoryFactory,
	maskingProvider llm.LLMProvider,
	modelName string,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IPiiService {
	return &piiService{
		uowFactory:      uowFactory,
		maskingProvider: maskingProvider,
		modelName:       modelName,
		eventPublisher:  eventPublisher,
		log:             log,
	}
}

func (s *piiService) mask(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(constant.PIIMaskingPromptTemplate, text)
	reply, err := s.maskingProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return "", apperror.Upstream("masking model request failed", err)
	}

	masked := utils.CleanMaskedReply(reply)
	if masked == "" {
		return "", apperror.Upstream("masking model returned an empty result", nil)
	}
	return masked, nil
}

func (s *piiService) MaskText(ctx context.Context, req *dto.MaskTextRequest) (*dto.MaskTextResponse, error) {
	masked, err := s.mask(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	return &dto.MaskTextResponse{
		OriginalText: req.Text,
		MaskedText:   masked,
		ModelUsed:    s.modelName,
	}, nil
}

func (s *piiService) MaskDocument(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, apperror.Persistence("failed to load document", err)
	}
	if doc == nil || doc.UserId != userId {
		return nil, apperror.NotFound("document not found")
	}

	masked, err := s.mask(ctx, doc.Content)
	if err != nil {
		return nil, err
	}

	doc.MaskedContent = &entity.MaskedContent{
		OriginalContent: doc.Content,
		MaskedContent:   masked,
		OriginalLength:  len(doc.Content),
		MaskedLength:    len(masked),
		MaskedAt:        time.Now().UTC().Format(time.RFC3339),
		ModelUsed:       s.modelName,
	}
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, apperror.Persistence("failed to store masked content", err)
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewDocumentMaskedEvent(doc.Id, doc.UserId, s.modelName)); err != nil {
			s.log.Warn("PII", "failed to publish masked event", map[string]interface{}{"error": err.Error()})
		}
	}

	return toDocumentResponse(doc), nil
}

func (s *piiService) GetMaskedContent(ctx context.Context, userId, documentId uuid.UUID) (*dto.MaskedContentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, apperror.Persistence("failed to load document", err)
	}
	if doc == nil || doc.UserId != userId {
		return nil, apperror.NotFound("document not found")
	}
	if doc.MaskedContent == nil {
		return nil, apperror.NotFound("document has no masked content")
	}

	mc := doc.MaskedContent
	return &dto.MaskedContentResponse{
		OriginalContent: mc.OriginalContent,
		MaskedContent:   mc.MaskedContent,
		OriginalLength:  mc.OriginalLength,
		MaskedLength:    mc.MaskedLength,
		MaskedAt:        mc.MaskedAt,
		ModelUsed:       mc.ModelUsed,
	}, nil
}
