package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/internal/utils"
)

// SubmissionHandler wires submission HTTP routes. Deliverable endpoints
// always act on behalf of the authenticated student; the caller cannot
// submit for someone else.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterProjectRoutes attaches the deliverable endpoints to the projects
// router group.
func (h *SubmissionHandler) RegisterProjectRoutes(router fiber.Router) {
	router.Post("/submissions/upload", h.upload)
	router.Post("/submissions/git", h.linkGit)
	router.Post("/submissions/content", h.submitContent)
	router.Get("/:projectId/submissions", middleware.WithRole(h.listByProject, middleware.AuthRoleProfessor))
	router.Get("/:projectId/submissions/me", h.getMine)
}

// Register attaches submission endpoints to the submissions router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Get("/:id/versions", h.versions)
	router.Patch("/:id/grade", middleware.WithRole(h.grade, middleware.AuthRoleProfessor))
}

func (h *SubmissionHandler) upload(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	projectID, err := strconv.ParseUint(c.FormValue("project_id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project_id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	payload := dto.SubmissionUploadRequest{
		ProjectID: uint(projectID),
		UserID:    userID,
	}

	submission, err := h.service.UploadFile(c.Context(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission uploaded", submission)
}

func (h *SubmissionHandler) linkGit(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.SubmissionGitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.UserID = userID

	submission, err := h.service.LinkGitRepository(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "repository linked", submission)
}

func (h *SubmissionHandler) submitContent(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.SubmissionContentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.UserID = userID

	submission, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission saved", submission)
}

func (h *SubmissionHandler) listByProject(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByProject(c.Context(), projectID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) getMine(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	submission, err := h.service.GetByProjectAndUser(c.Context(), projectID, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) versions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	versions, err := h.service.Versions(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "versions retrieved", versions)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Grade(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrInvalidRepositoryURL):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid git repository url")
	case errors.Is(err, service.ErrFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "submission file is required")
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
