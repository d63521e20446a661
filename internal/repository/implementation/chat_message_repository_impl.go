package implementation

import (
	"context"
	"errors"

	"signaware-be/internal/entity"
	"signaware-be/internal/mapper"
	"signaware-be/internal/model"
	"signaware-be/internal/repository/contract"
	"signaware-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.ChatMessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	// Create backfills the generated id and seq via RETURNING.
	*message = *r.mapper.ChatMessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	var m model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatMessageToEntity(&m), nil
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatMessagesToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChatMessageRepositoryImpl) ListSessionIDs(ctx context.Context, documentId, userId uuid.UUID) ([]string, error) {
	var sessionIds []string
	err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Distinct("session_id").
		Where("document_id = ? AND user_id = ?", documentId, userId).
		Pluck("session_id", &sessionIds).Error
	if err != nil {
		return nil, err
	}
	return sessionIds, nil
}

func (r *ChatMessageRepositoryImpl) DeleteBySessionID(ctx context.Context, sessionId string, documentId, userId uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND document_id = ? AND user_id = ?", sessionId, documentId, userId).
		Delete(&model.ChatMessage{})
	return result.RowsAffected, result.Error
}
