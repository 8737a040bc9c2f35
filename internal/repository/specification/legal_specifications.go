package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type BySourceFile struct {
	SourceFile string
}

func (s BySourceFile) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_file = ?", s.SourceFile)
}
