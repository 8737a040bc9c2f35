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
	"gorm.io/gorm"
)

type ContractSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContractMapper
}

func NewContractSessionRepository(db *gorm.DB) contract.ContractSessionRepository {
	return &ContractSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewContractMapper(),
	}
}

func (r *ContractSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContractSessionRepositoryImpl) Create(ctx context.Context, session *entity.ContractSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ContractSessionRepositoryImpl) Update(ctx context.Context, session *entity.ContractSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ContractSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ContractSession{}, id).Error
}

func (r *ContractSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ContractSession, error) {
	var m model.ContractSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ContractSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContractSession, error) {
	var models []*model.ContractSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.SessionsToEntities(models), nil
}

func (r *ContractSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ContractSession{}).Count(&count).Error
	return count, err
}

func (r *ContractSessionRepositoryImpl) UpdateDraft(ctx context.Context, id uuid.UUID, htmlContent string, version int) error {
	return r.db.WithContext(ctx).
		Model(&model.ContractSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"html_content": htmlContent,
			"version":      version,
		}).Error
}

type ContractMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContractMapper
}

func NewContractMessageRepository(db *gorm.DB) contract.ContractMessageRepository {
	return &ContractMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewContractMapper(),
	}
}

func (r *ContractMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContractMessageRepositoryImpl) Create(ctx context.Context, message *entity.ContractMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ContractMessageRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ContractMessage{}, id).Error
}

func (r *ContractMessageRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("contract_session_id = ?", sessionId).Delete(&model.ContractMessage{}).Error
}

func (r *ContractMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ContractMessage, error) {
	var m model.ContractMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *ContractMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContractMessage, error) {
	var models []*model.ContractMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *ContractMessageRepositoryImpl) FindRecent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ContractMessage, error) {
	var models []*model.ContractMessage
	err := r.db.WithContext(ctx).
		Where("contract_session_id = ?", sessionId).
		Scopes(scope.OrderByCreatedDesc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return r.mapper.MessagesToEntities(models), nil
}
