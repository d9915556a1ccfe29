package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/internal/utils"
)

// AuthHandler wires the passwordless login and token endpoints.
type AuthHandler struct {
	service service.AuthService
	cookies middleware.CookieConfig
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, cookies middleware.CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/login/code", h.requestCode)
	router.Post("/login/verify", h.verifyCode)
	router.Post("/refresh-token", h.refresh)
	router.Post("/logout", h.logout)
	router.Get("/google/callback", h.googleCallback)
}

func (h *AuthHandler) requestCode(c *fiber.Ctx) error {
	var payload dto.RequestCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.RequestCode(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login code sent", result)
}

func (h *AuthHandler) verifyCode(c *fiber.Ctx) error {
	var payload dto.VerifyCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	pair, err := h.service.VerifyCode(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Cookie(middleware.NewRefreshCookie(h.cookies, pair.RefreshToken))

	return utils.SendSuccess(c, "login successful", dto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(middleware.RefreshCookieName)
	if refreshToken == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "refresh cookie missing")
	}

	pair, err := h.service.Refresh(c.Context(), refreshToken)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Cookie(middleware.NewRefreshCookie(h.cookies, pair.RefreshToken))

	return utils.SendSuccess(c, "token refreshed", dto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	c.Cookie(middleware.ClearRefreshCookie(h.cookies))

	return utils.SendSuccess(c, "logged out", fiber.Map{})
}

func (h *AuthHandler) googleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "authorization code missing")
	}

	pair, err := h.service.AuthenticateWithGoogle(c.Context(), code)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Cookie(middleware.NewRefreshCookie(h.cookies, pair.RefreshToken))

	return utils.SendSuccess(c, "login successful", dto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrNeedsRegistration):
		return utils.SendError(c, fiber.StatusConflict, "account not found, name required to register")
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired login code")
	case errors.Is(err, service.ErrInvalidToken):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, models.ErrInvalidEmail):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid email address")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
