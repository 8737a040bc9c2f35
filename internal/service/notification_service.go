package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/mailer"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/contract"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/events"

	pktNats "github.com/berserker-glitch/9anonai-be-sub000/pkg/nats"

	"github.com/google/uuid"
)

// cacheLogEvery controls how often the embedding cache hit rate is
// written to the log.
const cacheLogEvery = 100

// NotificationDelivery defines how to push real-time updates.
// Implemented by the websocket hub.
type NotificationDelivery interface {
	Send(userId uuid.UUID, notification dto.NotificationResponse)
	Broadcast(notification dto.NotificationResponse)
}

type NotificationService struct {
	notifications contract.NotificationRepository
	users         contract.UserRepository
	subscriber    *pktNats.Subscriber
	delivery      NotificationDelivery
	mail          mailer.IEmailService
	logger        logger.ILogger

	cacheHits    atomic.Int64
	cacheLookups atomic.Int64
}

func NewNotificationService(
	notifications contract.NotificationRepository,
	users contract.UserRepository,
	subscriber *pktNats.Subscriber,
	delivery NotificationDelivery,
	mail mailer.IEmailService,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		subscriber:    subscriber,
		delivery:      delivery,
		mail:          mail,
		logger:        log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No event subscriber configured, notifications disabled", nil)
		return
	}
	if err := s.subscriber.Subscribe("events.>", "notification-worker", s.handleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Listening on events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.TypeEmbedCache:
		s.recordCacheLookup(event)
		return nil
	case events.TypeContractAudited:
		return s.handleContractAudited(ctx, event)
	case events.TypeDocumentIngested:
		return s.handleDocumentIngested(ctx, event)
	case events.TypeAdviceAnswered:
		// Telemetry only, no user-facing notice.
		return nil
	default:
		s.logger.Debug("NotificationService", "Ignoring event", map[string]interface{}{"type": event.EventType()})
		return nil
	}
}

func (s *NotificationService) recordCacheLookup(event events.Event) {
	if hit, _ := event.Payload()["hit"].(bool); hit {
		s.cacheHits.Add(1)
	}
	if n := s.cacheLookups.Add(1); n%cacheLogEvery == 0 {
		hits := s.cacheHits.Load()
		s.logger.Info("NotificationService", "Embedding cache stats", map[string]interface{}{
			"lookups":  n,
			"hits":     hits,
			"hit_rate": float64(hits) / float64(n),
		})
	}
}

func (s *NotificationService) handleContractAudited(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userId, ok := payloadUUID(payload, "user_id")
	if !ok {
		s.logger.Warn("NotificationService", "CONTRACT_AUDITED without user_id", nil)
		return nil
	}

	contractType, _ := payload["contract_type"].(string)
	version := payloadInt(payload, "version")
	critical := payloadInt(payload, "critical_issues")

	message := fmt.Sprintf("La révision de votre document (version %d) est terminée: aucun problème critique.", version)
	if critical > 0 {
		message = fmt.Sprintf("La révision de votre document (version %d) a détecté %d problème(s) critique(s).", version, critical)
	}

	notif := entity.Notification{
		UserId:    userId,
		TypeCode:  entity.NotificationContractAudited,
		Title:     "Révision juridique terminée",
		Message:   message,
		Metadata:  payload,
		CreatedAt: event.Timestamp(),
	}

	if err := s.notifications.Create(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", "Failed to save notification", map[string]interface{}{"error": err.Error()})
		return err // NATS redelivers
	}

	if s.delivery != nil {
		s.delivery.Send(userId, toNotificationResponse(&notif))
	}

	if critical > 0 && s.mail != nil {
		s.sendAuditMail(ctx, userId, contractType, version, critical)
	}
	return nil
}

func (s *NotificationService) sendAuditMail(ctx context.Context, userId uuid.UUID, contractType string, version, critical int) {
	user, err := s.users.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		s.logger.Warn("NotificationService", "Audit mail skipped, user not found", map[string]interface{}{"user_id": userId})
		return
	}

	label := contractType
	if label == "" {
		label = "contrat"
	}
	if err := s.mail.SendAuditNotice(user.Email, label, version, critical); err != nil {
		// Mail is best effort, the websocket notice already went out.
		s.logger.Warn("NotificationService", "Audit mail failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *NotificationService) handleDocumentIngested(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	name, _ := payload["name"].(string)
	category, _ := payload["category"].(string)
	chunks := payloadInt(payload, "chunk_count")

	// Blocked admin accounts keep their history but get no new notices.
	admins, err := s.users.FindAll(ctx,
		specification.ByRole{Role: string(entity.UserRoleAdmin)},
		specification.ActiveUsers{},
	)
	if err != nil {
		return err
	}

	for _, admin := range admins {
		notif := entity.Notification{
			UserId:    admin.Id,
			TypeCode:  entity.NotificationDocumentIngested,
			Title:     "Document indexé",
			Message:   fmt.Sprintf("%q (%s) est indexé: %d segment(s) dans la base de connaissances.", name, category, chunks),
			Metadata:  payload,
			CreatedAt: event.Timestamp(),
		}
		if err := s.notifications.Create(ctx, &notif); err != nil {
			s.logger.Error("NotificationService", "Failed to save admin notification", map[string]interface{}{"error": err.Error()})
			continue
		}
		if s.delivery != nil {
			s.delivery.Send(admin.Id, toNotificationResponse(&notif))
		}
	}
	return nil
}

// GetNotifications returns the user's notification inbox, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := s.notifications.FindByUser(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = toNotificationResponse(n)
	}
	return &dto.NotificationListResponse{
		Notifications: items,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userId uuid.UUID) (int64, error) {
	return s.notifications.CountUnread(ctx, userId)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userId uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, userId)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	return s.notifications.MarkAllRead(ctx, userId)
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		Id:        n.Id,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, bool) {
	raw, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// payloadInt tolerates the number types JSON decoding produces.
func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
