package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates a course could not be found.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidAccessCode indicates no course matches the supplied code.
	ErrInvalidAccessCode = errors.New("invalid access code")
	// ErrAlreadyEnrolled indicates the student already joined the course.
	ErrAlreadyEnrolled = errors.New("student already enrolled in this course")
	// ErrNotCourseOwner indicates the caller does not own the course.
	ErrNotCourseOwner = errors.New("course belongs to another professor")
	// ErrNotEnrolled indicates the student has no enrollment in the course.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
)

const accessCodeLength = 6

const accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CourseService manages courses and enrollments.
type CourseService interface {
	Create(ctx context.Context, creatorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Update(ctx context.Context, id, callerID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id, callerID uint) error
	ListByProfessor(ctx context.Context, professorID uint) ([]dto.CourseResponse, error)
	ListEnrolled(ctx context.Context, studentID uint) ([]dto.CourseResponse, error)
	ListStudents(ctx context.Context, courseID uint) ([]dto.UserResponse, error)
	Join(ctx context.Context, userID uint, accessCode string) (dto.CourseResponse, error)
	RemoveStudent(ctx context.Context, courseID, studentID uint) error
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Create(ctx context.Context, creatorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	accessCode, err := s.generateUniqueAccessCode(ctx)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Name:        payload.Name,
		Description: payload.Description,
		AccessCode:  accessCode,
		CreatorID:   creatorID,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("access_code", accessCode).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

// generateUniqueAccessCode retries until the 6-char code is unused. The
// course table's unique index remains the final guard.
func (s *courseService) generateUniqueAccessCode(ctx context.Context) (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		code, err := randomAccessCode()
		if err != nil {
			return "", err
		}

		exists, err := s.courses.AccessCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to allocate a unique access code")
}

func randomAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}

	for i, b := range buf {
		buf[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}

	return string(buf), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id, callerID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if course.CreatorID != callerID {
		return dto.CourseResponse{}, ErrNotCourseOwner
	}

	if payload.Name != nil {
		course.Name = *payload.Name
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id, callerID uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if course.CreatorID != callerID {
		return ErrNotCourseOwner
	}

	return s.courses.Delete(ctx, id)
}

func (s *courseService) ListByProfessor(ctx context.Context, professorID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListByCreator(ctx, professorID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListEnrolled(ctx context.Context, studentID uint) ([]dto.CourseResponse, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courses := make([]models.Course, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courses = append(courses, enrollment.Course)
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListStudents(ctx context.Context, courseID uint) ([]dto.UserResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	students := make([]dto.UserResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		students = append(students, dto.NewUserResponse(enrollment.User))
	}

	return students, nil
}

func (s *courseService) Join(ctx context.Context, userID uint, accessCode string) (dto.CourseResponse, error) {
	course, err := s.courses.GetByAccessCode(ctx, accessCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrInvalidAccessCode
		}
		return dto.CourseResponse{}, err
	}

	enrolled, err := s.enrollments.Exists(ctx, userID, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if enrolled {
		return dto.CourseResponse{}, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{UserID: userID, CourseID: course.ID}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		// The composite unique index closes the check-then-insert window.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrAlreadyEnrolled
		}
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Uint("course_id", course.ID).Msg("student joined course")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) RemoveStudent(ctx context.Context, courseID, studentID uint) error {
	if err := s.enrollments.Delete(ctx, studentID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}

	return nil
}
