package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title                 string    `gorm:"type:varchar(255);not null"`
	Content               string    `gorm:"type:text;not null"`
	OriginalFileName      *string   `gorm:"type:varchar(255)"`
	MimeType              *string   `gorm:"type:varchar(100)"`
	Type                  string    `gorm:"type:varchar(50);not null;default:'other';index"`
	Status                string    `gorm:"type:varchar(50);not null;default:'pending';index"`
	Analysis              datatypes.JSON
	MaskedContent         datatypes.JSON
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	ErrorMessage          *string   `gorm:"type:text"`
	UserId                uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
