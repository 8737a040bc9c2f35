package implementation

import (
	"context"
	"errors"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/mapper"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LegalDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LegalMapper
}

func NewLegalDocumentRepository(db *gorm.DB) contract.LegalDocumentRepository {
	return &LegalDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewLegalMapper(),
	}
}

func (r *LegalDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LegalDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.LegalDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *LegalDocumentRepositoryImpl) Update(ctx context.Context, doc *entity.LegalDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *LegalDocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.LegalDocument{}, id).Error
}

func (r *LegalDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalDocument, error) {
	var m model.LegalDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *LegalDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalDocument, error) {
	var models []*model.LegalDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.DocumentsToEntities(models), nil
}

func (r *LegalDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.LegalDocument{}).Count(&count).Error
	return count, err
}

func (r *LegalDocumentRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, chunkCount int) error {
	return r.db.WithContext(ctx).
		Model(&model.LegalDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(status),
			"chunk_count": chunkCount,
		}).Error
}
