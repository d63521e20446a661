package mapper

import (
	"encoding/json"

	"signaware-be/internal/entity"
	"signaware-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(msg.Metadata) > 0 {
		// Metadata is free-form; a decode failure just leaves it empty
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}

	return &entity.ChatMessage{
		Id:         msg.Id,
		Content:    msg.Content,
		Role:       msg.Role,
		SessionId:  msg.SessionId,
		DocumentId: msg.DocumentId,
		UserId:     msg.UserId,
		Metadata:   metadata,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSON
	if msg.Metadata != nil {
		if raw, err := json.Marshal(msg.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.ChatMessage{
		Id:         msg.Id,
		Content:    msg.Content,
		Role:       msg.Role,
		SessionId:  msg.SessionId,
		DocumentId: msg.DocumentId,
		UserId:     msg.UserId,
		Metadata:   metadata,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, msg := range models {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}
