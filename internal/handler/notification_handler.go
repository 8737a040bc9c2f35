package handler

import (
	"os"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/serverutils"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/service"

	internalWS "github.com/berserker-glitch/9anonai-be-sub000/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs upgrades the connection and attaches it to the hub. Browsers
// cannot set headers on websocket handshakes, so the token is accepted
// from the "token" query param as well as the Authorization header.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (query 'token' or Authorization header)"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("NotificationHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user id in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "WebSocket session started", map[string]interface{}{"user_id": userId})
			internalWS.ServeWs(h.hub, conn, userId)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userId})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// GetNotifications returns the user's notification inbox.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userIdStr := c.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	list, err := h.service.GetNotifications(c.UserContext(), userId, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Notifications retrieved", list))
}

// GetUnreadCount returns the number of unread notifications.
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userIdStr := c.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	count, err := h.service.GetUnreadCount(c.UserContext(), userId)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Unread count retrieved", fiber.Map{"count": count}))
}

// MarkAsRead marks one notification as read.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userIdStr := c.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification id")
	}

	if err := h.service.MarkAsRead(c.UserContext(), id, userId); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("Notification marked as read", nil))
}

// MarkAllAsRead marks the whole inbox as read.
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userIdStr := c.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := h.service.MarkAllAsRead(c.UserContext(), userId); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("All notifications marked as read", nil))
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/api/notification/v1")
	notif.Get("/ws", h.ServeWs)

	rest := notif.Use(serverutils.JwtMiddleware)
	rest.Get("/", h.GetNotifications)
	rest.Get("/unread-count", h.GetUnreadCount)
	rest.Patch("/:id/read", h.MarkAsRead)
	rest.Patch("/read-all", h.MarkAllAsRead)
}
