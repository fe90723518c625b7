package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
)

type lifecycleService interface {
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	CascadeDeleteUser(ctx context.Context, userID int64) error
}

// LifecycleHandler serves the service-to-service surface: the profile
// directory pushes mirror updates here, and the account lifecycle service
// calls the cascade delete when it removes a user.
type LifecycleHandler struct {
	service lifecycleService
}

type upsertProfileRequest struct {
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	AvatarURL   *string `json:"avatar_url"`
}

func NewLifecycleHandler(service lifecycleService) *LifecycleHandler {
	return &LifecycleHandler{service: service}
}

func (h *LifecycleHandler) UpsertProfile(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req upsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile := &models.Profile{
		ID:          userID,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		AvatarURL:   req.AvatarURL,
	}

	if err := h.service.UpsertProfile(c.Context(), profile); err != nil {
		return mapMessagingError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *LifecycleHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	if err := h.service.CascadeDeleteUser(c.Context(), userID); err != nil {
		return mapMessagingError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
