package contract

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type ContractSessionRepository interface {
	Create(ctx context.Context, session *entity.ContractSession) error
	Update(ctx context.Context, session *entity.ContractSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ContractSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContractSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// UpdateDraft persists a new document body and bumps the stored version.
	UpdateDraft(ctx context.Context, id uuid.UUID, htmlContent string, version int) error
}

type ContractMessageRepository interface {
	Create(ctx context.Context, message *entity.ContractMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ContractMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContractMessage, error)
	FindRecent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ContractMessage, error)
}
