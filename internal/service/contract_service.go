package service

import (
	"context"
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
)

type IContractService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateContractSessionRequest) (*dto.ContractSessionResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID) ([]dto.ContractSessionResponse, error)
	GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ContractSessionDetail, error)
	// StreamMessage runs one drafting turn against the session's current
	// document snapshot. The html/version delta and the audit are
	// persisted only when the stream completed.
	StreamMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.ContractStreamRequest) (<-chan pipeline.StreamEvent, error)
}

type contractService struct {
	uowFactory unitofwork.RepositoryFactory
	histories  *history.Loader
	pipeline   *pipeline.ContractPipeline
	quota      *quota.Service
	publisher  *pktNats.Publisher
	logger     logger.ILogger
}

func NewContractService(
	uowFactory unitofwork.RepositoryFactory,
	histories *history.Loader,
	contractPipeline *pipeline.ContractPipeline,
	quotaService *quota.Service,
	publisher *pktNats.Publisher,
	log logger.ILogger,
) IContractService {
	return &contractService{
		uowFactory: uowFactory,
		histories:  histories,
		pipeline:   contractPipeline,
		quota:      quotaService,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *contractService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateContractSessionRequest) (*dto.ContractSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = constant.DefaultContractSessionTitle
	}
	language := req.Language
	if language == "" {
		language = s.sessionLanguage(ctx, uow, userId)
	}

	session := &entity.ContractSession{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        title,
		ContractType: req.ContractType,
		Language:     language,
		CreatedAt:    time.Now(),
	}
	if err := uow.ContractSessionRepository().Create(ctx, session); err != nil {
		s.logger.Error("ContractService", "Failed to create session", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, err
	}

	return toContractSessionResponse(session), nil
}

func (s *contractService) GetSessions(ctx context.Context, userId uuid.UUID) ([]dto.ContractSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ContractSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ContractSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, *toContractSessionResponse(session))
	}
	return responses, nil
}

// GetSession returns the full session state: the current document
// snapshot plus the conversation with attached reviews.
func (s *contractService) GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ContractSessionDetail, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.ownedContractSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ContractMessageRepository().FindAll(ctx,
		specification.ByContractSessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageResponses := make([]dto.ContractMessageResponse, 0, len(messages))
	for _, message := range messages {
		messageResponses = append(messageResponses, dto.ContractMessageResponse{
			Id:        message.Id,
			Role:      message.Role,
			Content:   message.Content,
			Review:    toReviewDTO(message.Review),
			CreatedAt: message.CreatedAt,
		})
	}

	return &dto.ContractSessionDetail{
		ContractSessionResponse: *toContractSessionResponse(session),
		HtmlContent:             session.HtmlContent,
		Messages:                messageResponses,
	}, nil
}

func (s *contractService) StreamMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.ContractStreamRequest) (<-chan pipeline.StreamEvent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.ownedContractSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if err := s.quota.Consume(ctx, userId, quota.KindContract); err != nil {
		return nil, err
	}

	turns, err := s.histories.LoadContractHistory(ctx, session.Id, history.DefaultWindow)
	if err != nil {
		return nil, err
	}

	userMessage := &entity.ContractMessage{
		Id:                uuid.New(),
		ContractSessionId: session.Id,
		Role:              constant.ChatMessageRoleUser,
		Content:           req.Message,
		CreatedAt:         time.Now(),
	}
	if err := uow.ContractMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	if session.Title == constant.DefaultContractSessionTitle {
		session.Title = titleFromMessage(req.Message)
		if err := uow.ContractSessionRepository().Update(ctx, session); err != nil {
			s.logger.Warn("ContractService", "Failed to set session title", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	upstream := s.pipeline.Run(ctx, pipeline.ContractRequest{
		Message:      req.Message,
		ContractType: session.ContractType,
		Language:     session.Language,
		CurrentHTML:  session.HtmlContent,
		Version:      session.Version,
		History:      turns,
	})

	out := make(chan pipeline.StreamEvent, 16)
	go s.relayContract(ctx, session, userId, upstream, out)
	return out, nil
}

// relayContract forwards pipeline events while capturing the reply
// text, the audit and the document delta. Nothing is persisted on an
// aborted stream: the session snapshot stays at its previous version.
func (s *contractService) relayContract(
	ctx context.Context,
	session *entity.ContractSession,
	userId uuid.UUID,
	upstream <-chan pipeline.StreamEvent,
	out chan<- pipeline.StreamEvent,
) {
	defer close(out)

	var (
		reply     strings.Builder
		review    *entity.ContractReview
		html      string
		version   int
		htmlSeen  bool
		completed bool
	)

	for event := range upstream {
		switch event.Type {
		case pipeline.EventToken:
			reply.WriteString(event.Text)
		case pipeline.EventReviewResult:
			review = event.Review
		case pipeline.EventHtmlUpdate:
			html = event.Html
			version = event.Version
			htmlSeen = true
		case pipeline.EventDone:
			completed = true
		}

		select {
		case out <- event:
		case <-ctx.Done():
			// Consumer gone; keep draining so the pipeline can unwind.
		}
	}

	if !completed {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	uow := s.uowFactory.NewUnitOfWork(persistCtx)

	assistantMessage := &entity.ContractMessage{
		Id:                uuid.New(),
		ContractSessionId: session.Id,
		Role:              constant.ChatMessageRoleAssistant,
		Content:           reply.String(),
		Review:            review,
		CreatedAt:         time.Now(),
	}
	if err := uow.ContractMessageRepository().Create(persistCtx, assistantMessage); err != nil {
		s.logger.Error("ContractService", "Failed to persist assistant message", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return
	}

	if htmlSeen {
		if err := uow.ContractSessionRepository().UpdateDraft(persistCtx, session.Id, html, version); err != nil {
			s.logger.Error("ContractService", "Failed to persist document version", map[string]interface{}{
				"session_id": session.Id.String(),
				"version":    version,
				"error":      err.Error(),
			})
			return
		}
	}

	if review != nil {
		s.publishAudited(persistCtx, session, userId, version, review)
	}
}

func (s *contractService) publishAudited(ctx context.Context, session *entity.ContractSession, userId uuid.UUID, version int, review *entity.ContractReview) {
	if s.publisher == nil {
		return
	}
	critical := 0
	for _, issue := range review.Issues {
		if issue.Severity == entity.IssueSeverityCritical {
			critical++
		}
	}
	event := events.NewContractAudited(session.Id, userId, session.ContractType, version, critical)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ContractService", "Failed to publish audit event", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

func (s *contractService) ownedContractSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ContractSession, error) {
	session, err := uow.ContractSessionRepository().FindOne(ctx,
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

func (s *contractService) sessionLanguage(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) string {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil || user.Language == "" {
		return defaultLanguage
	}
	return user.Language
}

func toContractSessionResponse(session *entity.ContractSession) *dto.ContractSessionResponse {
	return &dto.ContractSessionResponse{
		Id:           session.Id,
		Title:        session.Title,
		ContractType: session.ContractType,
		Language:     session.Language,
		Version:      session.Version,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
}

func toReviewDTO(review *entity.ContractReview) *dto.ContractReviewDTO {
	if review == nil {
		return nil
	}
	issues := make([]dto.ReviewIssueDTO, 0, len(review.Issues))
	for _, issue := range review.Issues {
		issues = append(issues, dto.ReviewIssueDTO{
			Severity:     issue.Severity,
			Clause:       issue.Clause,
			Description:  issue.Description,
			LawReference: issue.LawReference,
		})
	}
	return &dto.ContractReviewDTO{Issues: issues, Summary: review.Summary}
}
