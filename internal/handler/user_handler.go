package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/internal/utils"
)

// UserHandler wires user profile and administration routes.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/me", h.profile)
	router.Get("", middleware.WithRole(h.list, middleware.AuthRoleAdmin))
	router.Patch("/:id/role", middleware.WithRole(h.updateRole, middleware.AuthRoleAdmin))
}

func (h *UserHandler) profile(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	profile, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	users, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) updateRole(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UserRoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateRole(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "role updated", user)
}

func (h *UserHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
