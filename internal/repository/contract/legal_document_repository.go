package contract

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type LegalDocumentRepository interface {
	Create(ctx context.Context, doc *entity.LegalDocument) error
	Update(ctx context.Context, doc *entity.LegalDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LegalDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LegalDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, chunkCount int) error
}
