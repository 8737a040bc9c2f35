package implementation

import (
	"context"
	"errors"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/mapper"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/scope"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type LegalChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LegalMapper
}

func NewLegalChunkRepository(db *gorm.DB) contract.LegalChunkRepository {
	return &LegalChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewLegalMapper(),
	}
}

func (r *LegalChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LegalChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.LegalChunk) error {
	m := r.mapper.ChunkToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ChunkToEntity(m)
	return nil
}

func (r *LegalChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.LegalChunk) error {
	models := r.mapper.ChunksToModels(chunks)

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *LegalChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.LegalChunk{}, id).Error
}

// DeleteByDocumentId hard-deletes chunks; re-ingestion replaces them wholesale
// and stale soft-deleted rows would bloat the vector index.
func (r *LegalChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(scope.WithSoftDelete).Where("document_id = ?", documentId).Delete(&model.LegalChunk{}).Error
}

func (r *LegalChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalChunk, error) {
	var m model.LegalChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChunkToEntity(&m), nil
}

func (r *LegalChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalChunk, error) {
	var models []*model.LegalChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

func (r *LegalChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.LegalChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilar returns the `limit` nearest chunks by cosine distance.
// Category values are always bound as parameters; they come from the router's
// static tables today, but nothing here may trust that.
func (r *LegalChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, categories []string) ([]*contract.ScoredLegalChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.LegalChunk
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	// Table() bypasses the model hooks, so soft-delete filtering is explicit here.
	query := r.db.WithContext(ctx).
		Table("legal_chunks").
		Select("legal_chunks.*, embedding_value <=> ? as distance", queryVector).
		Scopes(scope.ExcludeSoftDelete)

	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}

	err := query.
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredLegalChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredLegalChunk{
			Chunk:    r.mapper.ChunkToEntity(&res.LegalChunk),
			Distance: res.Distance,
		}
	}
	return scored, nil
}
