package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification type codes. Each code maps to one bus event.
const (
	NotificationContractAudited  = "CONTRACT_AUDITED"
	NotificationDocumentIngested = "DOCUMENT_INGESTED"
)

type Notification struct {
	Id       uuid.UUID
	UserId   uuid.UUID
	TypeCode string
	Title    string
	Message  string
	// Metadata carries event payload fields for deep linking
	// (session id, document id, version).
	Metadata  map[string]interface{}
	IsRead    bool
	CreatedAt time.Time
}
