package specification

import (
	"gorm.io/gorm"
)

// BySessionID scopes a query to one conversation. Session identifiers are
// client-chosen strings, not UUIDs.
type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}
