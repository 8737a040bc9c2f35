package mapper

import (
	"time"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type LegalMapper struct{}

func NewLegalMapper() *LegalMapper {
	return &LegalMapper{}
}

func (m *LegalMapper) DocumentToEntity(d *model.LegalDocument) *entity.LegalDocument {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.LegalDocument{
		Id:          d.Id,
		Name:        d.Name,
		Type:        d.Type,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		SourceFile:  d.SourceFile,
		Language:    d.Language,
		Content:     d.Content,
		Status:      entity.DocumentStatus(d.Status),
		ChunkCount:  d.ChunkCount,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   d.DeletedAt.Valid,
	}
}

func (m *LegalMapper) DocumentToModel(d *entity.LegalDocument) *model.LegalDocument {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.LegalDocument{
		Id:          d.Id,
		Name:        d.Name,
		Type:        d.Type,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		SourceFile:  d.SourceFile,
		Language:    d.Language,
		Content:     d.Content,
		Status:      string(d.Status),
		ChunkCount:  d.ChunkCount,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *LegalMapper) DocumentsToEntities(docs []*model.LegalDocument) []*entity.LegalDocument {
	entities := make([]*entity.LegalDocument, len(docs))
	for i, d := range docs {
		entities[i] = m.DocumentToEntity(d)
	}
	return entities
}

func (m *LegalMapper) ChunkToEntity(c *model.LegalChunk) *entity.LegalChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.LegalChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		Text:           c.Text,
		ChunkIndex:     c.ChunkIndex,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		Category:       c.Category,
		Subcategory:    c.Subcategory,
		DocumentName:   c.DocumentName,
		DocumentType:   c.DocumentType,
		SourceFile:     c.SourceFile,
		Language:       c.Language,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      c.DeletedAt.Valid,
	}
}

func (m *LegalMapper) ChunkToModel(c *entity.LegalChunk) *model.LegalChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.LegalChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		Text:           c.Text,
		ChunkIndex:     c.ChunkIndex,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		Category:       c.Category,
		Subcategory:    c.Subcategory,
		DocumentName:   c.DocumentName,
		DocumentType:   c.DocumentType,
		SourceFile:     c.SourceFile,
		Language:       c.Language,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *LegalMapper) ChunksToEntities(chunks []*model.LegalChunk) []*entity.LegalChunk {
	entities := make([]*entity.LegalChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ChunkToEntity(c)
	}
	return entities
}

func (m *LegalMapper) ChunksToModels(chunks []*entity.LegalChunk) []*model.LegalChunk {
	models := make([]*model.LegalChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ChunkToModel(c)
	}
	return models
}
