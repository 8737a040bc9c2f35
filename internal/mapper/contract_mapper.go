package mapper

import (
	"encoding/json"
	"time"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContractMapper struct{}

func NewContractMapper() *ContractMapper {
	return &ContractMapper{}
}

func (m *ContractMapper) SessionToEntity(s *model.ContractSession) *entity.ContractSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ContractSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		ContractType: s.ContractType,
		Language:     s.Language,
		HtmlContent:  s.HtmlContent,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *ContractMapper) SessionToModel(s *entity.ContractSession) *model.ContractSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ContractSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		ContractType: s.ContractType,
		Language:     s.Language,
		HtmlContent:  s.HtmlContent,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *ContractMapper) SessionsToEntities(sessions []*model.ContractSession) []*entity.ContractSession {
	entities := make([]*entity.ContractSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

func (m *ContractMapper) MessageToEntity(msg *model.ContractMessage) *entity.ContractMessage {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	var review *entity.ContractReview
	if len(msg.Review) > 0 {
		var parsed entity.ContractReview
		if err := json.Unmarshal(msg.Review, &parsed); err == nil {
			review = &parsed
		}
	}

	return &entity.ContractMessage{
		Id:                msg.Id,
		ContractSessionId: msg.ContractSessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		Review:            review,
		CreatedAt:         msg.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
		IsDeleted:         msg.DeletedAt.Valid,
	}
}

func (m *ContractMapper) MessageToModel(msg *entity.ContractMessage) *model.ContractMessage {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	var review datatypes.JSON
	if msg.Review != nil {
		if raw, err := json.Marshal(msg.Review); err == nil {
			review = raw
		}
	}

	return &model.ContractMessage{
		Id:                msg.Id,
		ContractSessionId: msg.ContractSessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		Review:            review,
		CreatedAt:         msg.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
	}
}

func (m *ContractMapper) MessagesToEntities(messages []*model.ContractMessage) []*entity.ContractMessage {
	entities := make([]*entity.ContractMessage, len(messages))
	for i, msg := range messages {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
