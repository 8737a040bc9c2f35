package contract

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, userId uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userId uuid.UUID) error
	MarkAllRead(ctx context.Context, userId uuid.UUID) error
}
