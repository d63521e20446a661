package mapper

import (
	"encoding/json"

	"signaware-be/internal/entity"
	"signaware-be/internal/model"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var analysis *entity.DocumentAnalysis
	if len(d.Analysis) > 0 {
		var a entity.DocumentAnalysis
		if err := json.Unmarshal(d.Analysis, &a); err == nil {
			analysis = &a
		}
	}

	var masked *entity.MaskedContent
	if len(d.MaskedContent) > 0 {
		var mc entity.MaskedContent
		if err := json.Unmarshal(d.MaskedContent, &mc); err == nil {
			masked = &mc
		}
	}

	return &entity.Document{
		Id:                    d.Id,
		Title:                 d.Title,
		Content:               d.Content,
		OriginalFileName:      d.OriginalFileName,
		MimeType:              d.MimeType,
		Type:                  d.Type,
		Status:                d.Status,
		Analysis:              analysis,
		MaskedContent:         masked,
		ProcessingStartedAt:   d.ProcessingStartedAt,
		ProcessingCompletedAt: d.ProcessingCompletedAt,
		ErrorMessage:          d.ErrorMessage,
		UserId:                d.UserId,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var analysis datatypes.JSON
	if d.Analysis != nil {
		if raw, err := json.Marshal(d.Analysis); err == nil {
			analysis = raw
		}
	}

	var masked datatypes.JSON
	if d.MaskedContent != nil {
		if raw, err := json.Marshal(d.MaskedContent); err == nil {
			masked = raw
		}
	}

	return &model.Document{
		Id:                    d.Id,
		Title:                 d.Title,
		Content:               d.Content,
		OriginalFileName:      d.OriginalFileName,
		MimeType:              d.MimeType,
		Type:                  d.Type,
		Status:                d.Status,
		Analysis:              analysis,
		MaskedContent:         masked,
		ProcessingStartedAt:   d.ProcessingStartedAt,
		ProcessingCompletedAt: d.ProcessingCompletedAt,
		ErrorMessage:          d.ErrorMessage,
		UserId:                d.UserId,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
