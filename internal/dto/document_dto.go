package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterDocumentRequest struct {
	Name        string `json:"name" validate:"required,max=300"`
	Type        string `json:"type" validate:"required,oneof=code loi decret jurisprudence modele"`
	Category    string `json:"category" validate:"required,max=100"`
	Subcategory string `json:"subcategory" validate:"omitempty,max=100"`
	SourceFile  string `json:"source_file" validate:"omitempty,max=300"`
	Language    string `json:"language" validate:"omitempty,oneof=ar fr"`
	Content     string `json:"content" validate:"required"`
}

type DocumentResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	SourceFile  string    `json:"source_file,omitempty"`
	Language    string    `json:"language"`
	Status      string    `json:"status"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListDocumentsQuery filters the admin document listing. Zero values
// mean no filter; a zero limit returns the whole corpus.
type ListDocumentsQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending indexed failed archived"`
	Category string `query:"category" validate:"omitempty,max=100"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int64              `json:"total"`
}

// DocumentChunkPreview is an indexed chunk excerpt returned by the
// detail endpoint so admins can check splitting quality after ingestion.
type DocumentChunkPreview struct {
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

type DocumentDetailResponse struct {
	DocumentResponse
	IndexedChunks int64                  `json:"indexed_chunks"`
	Chunks        []DocumentChunkPreview `json:"chunks"`
}

// PublishIngestDocumentMessage is the ingest queue payload. The consumer
// re-reads the document from the store, so the id is all it carries.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
