package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	SessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.SessionID)
}

type ByContractSessionID struct {
	SessionID uuid.UUID
}

func (s ByContractSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("contract_session_id = ?", s.SessionID)
}
