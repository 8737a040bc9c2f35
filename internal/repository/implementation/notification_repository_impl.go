package implementation

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/mapper"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewNotificationRepository(db *gorm.DB) contract.NotificationRepository {
	return &NotificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *entity.Notification) error {
	m := r.mapper.ToModel(notification)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*notification = *r.mapper.ToEntity(m)
	return nil
}

func (r *NotificationRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userId)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Scopes(scope.OrderByCreatedDesc).
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return r.mapper.ToEntities(models), total, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("is_read", true).Error
}

func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true).Error
}
