package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContractSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"type:text;not null"`
	ContractType string         `gorm:"type:varchar(50);not null"`
	Language     string         `gorm:"type:varchar(8);not null;default:'ar'"`
	HtmlContent  string         `gorm:"type:text"`
	Version      int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ContractSession) TableName() string {
	return "contract_sessions"
}

type ContractMessage struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ContractSessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role              string         `gorm:"type:varchar(50);not null"`
	Content           string         `gorm:"type:text;not null"`
	Review            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (ContractMessage) TableName() string {
	return "contract_messages"
}
