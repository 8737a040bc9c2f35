package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	TypeCode  string         `gorm:"type:varchar(50);not null;index"`
	Title     string         `gorm:"type:varchar(200);not null"`
	Message   string         `gorm:"type:text;not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	IsRead    bool           `gorm:"default:false;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_notifications_user_created,priority:2,sort:desc"`
}

func (Notification) TableName() string {
	return "notifications"
}
