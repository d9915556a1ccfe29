package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

// ErrProjectNotFound indicates a project could not be found.
var ErrProjectNotFound = errors.New("project not found")

// ProjectService manages project definitions within courses.
type ProjectService interface {
	Create(ctx context.Context, callerID uint, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error)
	Get(ctx context.Context, id uint) (dto.ProjectResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.ProjectResponse, error)
	Update(ctx context.Context, id, callerID uint, payload dto.ProjectUpdateRequest) (dto.ProjectResponse, error)
	Delete(ctx context.Context, id, callerID uint) error
}

type projectService struct {
	projects  repository.ProjectRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(projects repository.ProjectRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) ProjectService {
	return &projectService{
		projects:  projects,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "project_service").Logger(),
	}
}

// requireCourseOwner resolves the course and checks the caller created it.
func (s *projectService) requireCourseOwner(ctx context.Context, courseID, callerID uint) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if course.CreatorID != callerID {
		return ErrNotCourseOwner
	}

	return nil
}

func (s *projectService) Create(ctx context.Context, callerID uint, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	if err := s.requireCourseOwner(ctx, payload.CourseID, callerID); err != nil {
		return dto.ProjectResponse{}, err
	}

	project := models.Project{
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     payload.DueDate,
		CourseID:    payload.CourseID,
	}

	if err := s.projects.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", project.ID).Uint("course_id", project.CourseID).Msg("project created")

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Get(ctx context.Context, id uint) (dto.ProjectResponse, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) ListByCourse(ctx context.Context, courseID uint) ([]dto.ProjectResponse, error) {
	projects, err := s.projects.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewProjectResponseSlice(projects), nil
}

func (s *projectService) Update(ctx context.Context, id, callerID uint, payload dto.ProjectUpdateRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}

	if err := s.requireCourseOwner(ctx, project.CourseID, callerID); err != nil {
		return dto.ProjectResponse{}, err
	}

	if payload.Title != nil {
		project.Title = *payload.Title
	}
	if payload.Description != nil {
		project.Description = *payload.Description
	}
	if payload.DueDate != nil {
		project.DueDate = *payload.DueDate
	}

	if err := s.projects.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Delete(ctx context.Context, id, callerID uint) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	if err := s.requireCourseOwner(ctx, project.CourseID, callerID); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	return nil
}
