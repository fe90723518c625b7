package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/notifier"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/services"
	chatws "github.com/PeppePc-EchoArachna/arachna-connect/internal/websocket"
	"github.com/PeppePc-EchoArachna/arachna-connect/pkg/utils"
)

// Content length is a boundary concern; the store only rejects empty.
const maxMessageLength = 4000

type messagingService interface {
	SendMessage(ctx context.Context, callerID, receiverID int64, content string) (*models.Message, error)
	ListConversations(ctx context.Context, callerID int64) ([]models.ConversationSummary, error)
	ListMessages(ctx context.Context, callerID, counterpartID int64, page, limit int) ([]models.Message, int, error)
	MarkRead(ctx context.Context, callerID, counterpartID int64) (int64, error)
	Subscribe(callerID int64) *notifier.Subscription
}

type MessageHandler struct {
	service   messagingService
	jwtSecret string
}

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

func NewMessageHandler(service messagingService, jwtSecret string) *MessageHandler {
	return &MessageHandler{
		service:   service,
		jwtSecret: jwtSecret,
	}
}

func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	callerID, err := callerIDFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summaries, err := h.service.ListConversations(c.Context(), callerID)
	if err != nil {
		return mapMessagingError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": summaries})
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	callerID, err := callerIDFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	counterpartID, err := strconv.ParseInt(c.Params("counterpartId"), 10, 64)
	if err != nil || counterpartID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid counterpart id"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := h.service.ListMessages(c.Context(), callerID, counterpartID, page, limit)
	if err != nil {
		return mapMessagingError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	callerID, err := callerIDFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if len(req.Content) > maxMessageLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message too long"})
	}

	message, err := h.service.SendMessage(c.Context(), callerID, req.ReceiverID, req.Content)
	if err != nil {
		return mapMessagingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	callerID, err := callerIDFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	counterpartID, err := strconv.ParseInt(c.Params("counterpartId"), 10, 64)
	if err != nil || counterpartID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid counterpart id"})
	}

	marked, err := h.service.MarkRead(c.Context(), callerID, counterpartID)
	if err != nil {
		return mapMessagingError(c, err)
	}

	return c.JSON(fiber.Map{"marked": marked})
}

func (h *MessageHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *MessageHandler) HandleWebSocket(conn *websocket.Conn) {
	rawID, _ := conn.Locals("user_id").(string)
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 {
		_ = conn.Close()
		return
	}

	sub := h.service.Subscribe(userID)
	client := chatws.NewClient(conn, sub, userID)

	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *MessageHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func callerIDFromLocals(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	callerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || callerID <= 0 {
		return 0, errors.New("invalid user id")
	}
	return callerID, nil
}

func mapMessagingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUnknownUser):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process messaging request"})
	}
}
