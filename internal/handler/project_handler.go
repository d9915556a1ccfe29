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

// ProjectHandler wires project HTTP routes.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register attaches project endpoints to the router group.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Post("", middleware.WithRole(h.create, middleware.AuthRoleProfessor))
	router.Get("/course/:courseId", h.listByCourse)
	router.Get("/:id", h.get)
	router.Patch("/:id", middleware.WithRole(h.update, middleware.AuthRoleProfessor))
	router.Delete("/:id", middleware.WithRole(h.delete, middleware.AuthRoleProfessor))
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.ProjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Create(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project created", project)
}

func (h *ProjectHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	projects, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "projects retrieved", projects)
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	project, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project retrieved", project)
}

func (h *ProjectHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.ProjectUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Update(c.Context(), id, userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project updated", project)
}

func (h *ProjectHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project deleted", fiber.Map{"id": id})
}

func (h *ProjectHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "course belongs to another professor")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
