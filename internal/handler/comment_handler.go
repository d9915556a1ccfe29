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

// CommentHandler wires submission comment HTTP routes.
type CommentHandler struct {
	service service.CommentService
	logger  zerolog.Logger
}

// NewCommentHandler constructs the handler.
func NewCommentHandler(service service.CommentService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		logger:  logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register attaches comment endpoints to the submissions router group.
func (h *CommentHandler) Register(router fiber.Router) {
	router.Get("/:id/comments", h.list)
	router.Post("/:id/comments", h.create)
	router.Patch("/:id/review-status", middleware.WithRole(h.updateReviewStatus, middleware.AuthRoleProfessor))
	router.Patch("/comments/:commentId", h.update)
	router.Delete("/comments/:commentId", h.delete)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.SubmissionID = submissionID
	payload.UserID = userID

	comment, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}

func (h *CommentHandler) list(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	threads, err := h.service.ListBySubmission(c.Context(), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comments retrieved", threads)
}

func (h *CommentHandler) update(c *fiber.Ctx) error {
	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CommentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.Update(c.Context(), commentID, userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment updated", comment)
}

func (h *CommentHandler) delete(c *fiber.Ctx) error {
	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Delete(c.Context(), commentID, userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment deleted", fiber.Map{"id": commentID})
}

func (h *CommentHandler) updateReviewStatus(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.UpdateReviewStatus(c.Context(), submissionID, payload.Status); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review status updated", fiber.Map{"submission_id": submissionID, "status": payload.Status})
}

func (h *CommentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "comment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrCommentThreadMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, "parent comment belongs to another submission")
	case errors.Is(err, service.ErrNotCommentAuthor):
		return utils.SendError(c, fiber.StatusForbidden, "comment belongs to another user")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
