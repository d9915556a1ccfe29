package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/internal/utils"
	"github.com/debtcleaner/debtcleaner-api/pkg/githubapi"
)

// GitHubHandler wires the GitHub account linkage routes.
type GitHubHandler struct {
	service service.GitHubService
	logger  zerolog.Logger
}

// NewGitHubHandler constructs the handler.
func NewGitHubHandler(service service.GitHubService, logger zerolog.Logger) *GitHubHandler {
	return &GitHubHandler{
		service: service,
		logger:  logger.With().Str("component", "github_handler").Logger(),
	}
}

// Register attaches GitHub endpoints to the router group.
func (h *GitHubHandler) Register(router fiber.Router) {
	router.Get("/authorize", h.authorize)
	router.Get("/callback", h.callback)
	router.Get("/status", h.status)
	router.Delete("/disconnect", h.disconnect)
	router.Get("/commits", h.listCommits)
}

func (h *GitHubHandler) authorize(c *fiber.Ctx) error {
	state := uuid.NewString()
	url := h.service.AuthorizeURL(state)

	return utils.SendSuccess(c, "authorization url generated", fiber.Map{"url": url, "state": state})
}

func (h *GitHubHandler) callback(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "authorization code missing")
	}

	if err := h.service.CompleteAuthorization(c.Context(), userID, code); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "github account connected", fiber.Map{"connected": true})
}

func (h *GitHubHandler) status(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	connected, err := h.service.IsConnected(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "github status retrieved", fiber.Map{"connected": connected})
}

func (h *GitHubHandler) disconnect(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Disconnect(c.Context(), userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "github account disconnected", fiber.Map{"connected": false})
}

func (h *GitHubHandler) listCommits(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	repoURL := strings.TrimSpace(c.Query("repo"))
	if repoURL == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "repo query parameter is required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	commits, err := h.service.ListCommits(c.Context(), userID, repoURL, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "commits retrieved", commits)
}

func (h *GitHubHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrGitHubNotConnected):
		return utils.SendError(c, fiber.StatusConflict, "no github account connected")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, githubapi.ErrInvalidRepoURL):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid repository url")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
