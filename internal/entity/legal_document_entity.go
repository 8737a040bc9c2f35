package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusIndexed  DocumentStatus = "indexed"
	DocumentStatusFailed   DocumentStatus = "failed"
	DocumentStatusArchived DocumentStatus = "archived"
)

// LegalDocument is one source text of the knowledge base: a code, a law,
// a decree, or a model contract.
type LegalDocument struct {
	Id          uuid.UUID
	Name        string // e.g. "Moudawana - Code de la Famille"
	Type        string // "code", "loi", "decret", "jurisprudence", "modele"
	Category    string // routing category, e.g. "moudawana"
	Subcategory string // e.g. "divorce"
	SourceFile  string
	Language    string // "ar" or "fr"
	Content     string
	Status      DocumentStatus
	ChunkCount  int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

// LegalChunk is one embedded fragment of a document. Document metadata is
// denormalized onto the chunk so similarity search never needs a join.
type LegalChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	Text           string
	ChunkIndex     int
	EmbeddingValue []float32
	Category       string
	Subcategory    string
	DocumentName   string
	DocumentType   string
	SourceFile     string
	Language       string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
