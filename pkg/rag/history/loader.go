package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/constant"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
)

// DefaultWindow is how many stored messages are replayed to the model.
// Ten keeps multi-turn follow-ups coherent without flooding the prompt.
const DefaultWindow = 10

// Loader turns persisted conversation rows into the chronological
// message window the LLM providers expect.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{uowFactory: uowFactory}
}

// LoadChatHistory returns the last limit advice messages of a session,
// oldest first.
func (l *Loader) LoadChatHistory(ctx context.Context, sessionId uuid.UUID, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}
	uow := l.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.ChatMessageRepository().FindRecent(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, llm.Message{
			Role:    mapRole(row.Role),
			Content: row.Content,
		})
	}
	return messages, nil
}

// LoadContractHistory returns the last limit drafting messages of a
// contract session, oldest first. Only the conversational content is
// replayed; document versions live on the session itself.
func (l *Loader) LoadContractHistory(ctx context.Context, sessionId uuid.UUID, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}
	uow := l.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.ContractMessageRepository().FindRecent(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, llm.Message{
			Role:    mapRole(row.Role),
			Content: row.Content,
		})
	}
	return messages, nil
}

// mapRole normalises stored roles to what providers accept. Anything
// that is not the user is the assistant.
func mapRole(stored string) string {
	if stored == constant.ChatMessageRoleUser {
		return "user"
	}
	return "assistant"
}
