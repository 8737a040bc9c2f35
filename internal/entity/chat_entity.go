package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	// Citations the assistant answer was grounded on. Empty for user
	// messages and casual replies.
	Citations []MessageCitation
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// MessageCitation is a denormalized snapshot of a cited legal source at
// answer time. Snapshots survive later re-ingestion of the knowledge base.
type MessageCitation struct {
	ChunkId      string  `json:"chunk_id"`
	DocumentName string  `json:"document_name"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	SourceFile   string  `json:"source_file,omitempty"`
	Score        float64 `json:"score"`
}
