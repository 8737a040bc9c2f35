package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type LegalDocument struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Type        string         `gorm:"type:varchar(50);not null;default:'code'"`
	Category    string         `gorm:"type:varchar(100);not null;index"`
	Subcategory string         `gorm:"type:varchar(100)"`
	SourceFile  string         `gorm:"type:varchar(255)"`
	Language    string         `gorm:"type:varchar(8);not null;default:'ar'"`
	Content     string         `gorm:"type:text"`
	Status      string         `gorm:"type:varchar(50);not null;default:'pending'"`
	ChunkCount  int            `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (LegalDocument) TableName() string {
	return "legal_documents"
}

type LegalChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text           string          `gorm:"type:text;not null"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based index for ordering
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	Category       string          `gorm:"type:varchar(100);not null;index"`
	Subcategory    string          `gorm:"type:varchar(100)"`
	DocumentName   string          `gorm:"type:varchar(255);not null"`
	DocumentType   string          `gorm:"type:varchar(50)"`
	SourceFile     string          `gorm:"type:varchar(255)"`
	Language       string          `gorm:"type:varchar(8)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (LegalChunk) TableName() string {
	return "legal_chunks"
}
