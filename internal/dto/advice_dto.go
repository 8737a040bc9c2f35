package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAdviceSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type AdviceSessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type AdviceHistoryItem struct {
	Id        uuid.UUID     `json:"id"`
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Citations []CitationDTO `json:"citations,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// CitationDTO is the wire form of a stored citation snapshot.
type CitationDTO struct {
	ChunkId      string  `json:"chunk_id"`
	DocumentName string  `json:"document_name"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	SourceFile   string  `json:"source_file,omitempty"`
	Score        float64 `json:"score"`
}

type AdviceStreamRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Message   string    `json:"message" validate:"required,max=4000"`
	// Overrides the profile language for this turn when set.
	Language string `json:"language" validate:"omitempty,oneof=ar fr"`
}

type DeleteAdviceSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}
