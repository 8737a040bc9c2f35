package unitofwork

import (
	"context"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository

	ContractSessionRepository() contract.ContractSessionRepository
	ContractMessageRepository() contract.ContractMessageRepository

	LegalDocumentRepository() contract.LegalDocumentRepository
	LegalChunkRepository() contract.LegalChunkRepository
}
