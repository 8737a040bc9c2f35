package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/constant"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/ai/pipeline"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/events"
	pktNats "github.com/berserker-glitch/9anonai-be-sub000/pkg/nats"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/quota"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/history"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
)

// ErrSessionNotFound covers both a missing session and a session owned
// by someone else; callers must not be able to tell the two apart.
var ErrSessionNotFound = errors.New("session not found")

// maxTitleRunes caps titles derived from the first user message.
const maxTitleRunes = 80

// persistTimeout bounds the write that records the assistant turn. It
// runs detached from the request context, which is usually already
// cancelled by the time the stream finishes.
const persistTimeout = 10 * time.Second

type IAdviceService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateAdviceSessionResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID) ([]dto.AdviceSessionResponse, error)
	GetHistory(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.AdviceHistoryItem, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	// StreamChat runs one advice turn and returns its event channel. The
	// channel is closed after the terminal event; the assistant reply is
	// persisted only when the stream completed.
	StreamChat(ctx context.Context, userId uuid.UUID, req *dto.AdviceStreamRequest) (<-chan pipeline.StreamEvent, error)
}

type adviceService struct {
	uowFactory unitofwork.RepositoryFactory
	histories  *history.Loader
	pipeline   *pipeline.AdvicePipeline
	quota      *quota.Service
	publisher  *pktNats.Publisher
	logger     logger.ILogger
}

func NewAdviceService(
	uowFactory unitofwork.RepositoryFactory,
	histories *history.Loader,
	advicePipeline *pipeline.AdvicePipeline,
	quotaService *quota.Service,
	publisher *pktNats.Publisher,
	log logger.ILogger,
) IAdviceService {
	return &adviceService{
		uowFactory: uowFactory,
		histories:  histories,
		pipeline:   advicePipeline,
		quota:      quotaService,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *adviceService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateAdviceSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultChatSessionTitle,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		s.logger.Error("AdviceService", "Failed to create session", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, err
	}

	return &dto.CreateAdviceSessionResponse{Id: session.Id, Title: session.Title}, nil
}

func (s *adviceService) GetSessions(ctx context.Context, userId uuid.UUID) ([]dto.AdviceSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AdviceSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, dto.AdviceSessionResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return responses, nil
}

func (s *adviceService) GetHistory(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.AdviceHistoryItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.ownedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AdviceHistoryItem, 0, len(messages))
	for _, message := range messages {
		items = append(items, dto.AdviceHistoryItem{
			Id:        message.Id,
			Role:      message.Role,
			Content:   message.Content,
			Citations: toCitationDTOs(message.Citations),
			CreatedAt: message.CreatedAt,
		})
	}
	return items, nil
}

// DeleteSession removes a session and its messages in one transaction.
func (s *adviceService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.ownedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *adviceService) StreamChat(ctx context.Context, userId uuid.UUID, req *dto.AdviceStreamRequest) (<-chan pipeline.StreamEvent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.ownedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	if err := s.quota.Consume(ctx, userId, quota.KindAdvice); err != nil {
		return nil, err
	}

	turns, err := s.histories.LoadChatHistory(ctx, session.Id, history.DefaultWindow)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = s.profileLanguage(ctx, uow, userId)
	}

	// The user turn is recorded before streaming starts so the question
	// survives a mid-stream disconnect.
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       req.Message,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	if session.Title == constant.DefaultChatSessionTitle {
		session.Title = titleFromMessage(req.Message)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			s.logger.Warn("AdviceService", "Failed to set session title", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	started := time.Now()
	upstream := s.pipeline.Run(ctx, pipeline.AdviceRequest{
		Query:    req.Message,
		History:  turns,
		Language: language,
	})

	out := make(chan pipeline.StreamEvent, 16)
	go s.relayAdvice(ctx, session, userId, upstream, out, started)
	return out, nil
}

// relayAdvice forwards pipeline events to the consumer while capturing
// what must outlive the stream: the assembled answer, its citations and
// the detected intent. Persistence happens only after a done event, so
// an aborted stream leaves no half-written assistant turn.
func (s *adviceService) relayAdvice(
	ctx context.Context,
	session *entity.ChatSession,
	userId uuid.UUID,
	upstream <-chan pipeline.StreamEvent,
	out chan<- pipeline.StreamEvent,
	started time.Time,
) {
	defer close(out)

	var (
		answer    strings.Builder
		citations []entity.MessageCitation
		detected  *intent.Intent
		completed bool
	)

	for event := range upstream {
		switch event.Type {
		case pipeline.EventIntent:
			detected = event.Intent
		case pipeline.EventCitation:
			citations = event.Citations
		case pipeline.EventToken:
			answer.WriteString(event.Text)
		case pipeline.EventDone:
			completed = true
		}

		select {
		case out <- event:
		case <-ctx.Done():
			// Consumer gone; keep draining so the pipeline can unwind.
		}
	}

	if !completed || answer.Len() == 0 {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       answer.String(),
		Citations:     citations,
		CreatedAt:     time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(persistCtx)
	if err := uow.ChatMessageRepository().Create(persistCtx, assistantMessage); err != nil {
		s.logger.Error("AdviceService", "Failed to persist assistant message", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return
	}

	s.publishAnswered(persistCtx, session.Id, userId, detected, len(citations), time.Since(started))
}

func (s *adviceService) publishAnswered(ctx context.Context, sessionId, userId uuid.UUID, detected *intent.Intent, sourceCount int, duration time.Duration) {
	if s.publisher == nil {
		return
	}
	intentType, domain := "", ""
	if detected != nil {
		intentType = detected.Type
		domain = detected.Domain
	}
	event := events.NewAdviceAnswered(sessionId, userId, intentType, domain, sourceCount, duration)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("AdviceService", "Failed to publish advice event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

// ownedSession loads a session and enforces ownership in the query
// itself rather than comparing after the fact.
func (s *adviceService) ownedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *adviceService) profileLanguage(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) string {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil || user.Language == "" {
		return defaultLanguage
	}
	return user.Language
}

// titleFromMessage derives a session title from the first question:
// first line only, trimmed to a displayable length.
func titleFromMessage(message string) string {
	title := strings.TrimSpace(message)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes]) + "..."
	}
	if title == "" {
		return constant.DefaultChatSessionTitle
	}
	return title
}

func toCitationDTOs(citations []entity.MessageCitation) []dto.CitationDTO {
	if len(citations) == 0 {
		return nil
	}
	out := make([]dto.CitationDTO, 0, len(citations))
	for _, c := range citations {
		out = append(out, dto.CitationDTO{
			ChunkId:      c.ChunkId,
			DocumentName: c.DocumentName,
			Category:     c.Category,
			Subcategory:  c.Subcategory,
			SourceFile:   c.SourceFile,
			Score:        c.Score,
		})
	}
	return out
}
