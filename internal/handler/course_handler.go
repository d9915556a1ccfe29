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

// CourseHandler wires course and enrollment HTTP routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.WithRole(h.create, middleware.AuthRoleProfessor))
	router.Post("/join", h.join)
	router.Get("/enrolled", h.listEnrolled)
	router.Get("/:id", h.get)
	router.Patch("/:id", middleware.WithRole(h.update, middleware.AuthRoleProfessor))
	router.Delete("/:id", middleware.WithRole(h.delete, middleware.AuthRoleProfessor))
	router.Get("/:id/students", middleware.WithRole(h.listStudents, middleware.AuthRoleProfessor))
	router.Delete("/:id/students/:studentId", middleware.WithRole(h.removeStudent, middleware.AuthRoleProfessor))
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	creatorID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.Context(), creatorID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	professorID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	courses, err := h.service.ListByProfessor(c.Context(), professorID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) listEnrolled(c *fiber.Ctx) error {
	studentID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	courses, err := h.service.ListEnrolled(c.Context(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrolled courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	caller, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(c.Context(), id, caller, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	caller, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, caller); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *CourseHandler) join(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.JoinCourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Join(c.Context(), userID, payload.AccessCode)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrolled in course", course)
}

func (h *CourseHandler) listStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	students, err := h.service.ListStudents(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *CourseHandler) removeStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveStudent(c.Context(), id, studentID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student removed", fiber.Map{"course_id": id, "student_id": studentID})
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrInvalidAccessCode):
		return utils.SendError(c, fiber.StatusNotFound, "invalid access code")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled in this course")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusNotFound, "student is not enrolled in this course")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "course belongs to another professor")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
