package mapper

import (
	"encoding/json"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"

	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(n.Metadata) > 0 {
		// Corrupt metadata degrades to nil, never an error.
		_ = json.Unmarshal(n.Metadata, &metadata)
	}

	return &entity.Notification{
		Id:        n.Id,
		UserId:    n.UserId,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.Notification) *model.Notification {
	if n == nil {
		return nil
	}

	var metadata datatypes.JSON
	if len(n.Metadata) > 0 {
		if raw, err := json.Marshal(n.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.Notification{
		Id:        n.Id,
		UserId:    n.UserId,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func (m *NotificationMapper) ToEntities(notifications []*model.Notification) []*entity.Notification {
	entities := make([]*entity.Notification, len(notifications))
	for i, n := range notifications {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
