package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	Id        uuid.UUID              `json:"id"`
	TypeCode  string                 `json:"type_code"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int64                  `json:"total"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
