package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newCourseTestService(t *testing.T, name string) (CourseService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t, name, &models.User{}, &models.Course{}, &models.Enrollment{})
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCourseService(repository.NewCourseRepository(db), repository.NewEnrollmentRepository(db), validate, testLogger())
	return svc, db
}

func TestCourseServiceCreateGeneratesAccessCode(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_create")

	course, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Databases", Description: "Relational modelling"})
	require.NoError(t, err)
	require.Regexp(t, accessCodePattern, course.AccessCode)
	require.Equal(t, uint(1), course.CreatorID)

	other, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Networks"})
	require.NoError(t, err)
	require.NotEqual(t, course.AccessCode, other.AccessCode)
}

func TestCourseServiceJoinByAccessCode(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_join")

	course, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Databases"})
	require.NoError(t, err)

	joined, err := svc.Join(context.Background(), 2, course.AccessCode)
	require.NoError(t, err)
	require.Equal(t, course.ID, joined.ID)

	enrolled, err := svc.ListEnrolled(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	require.Equal(t, course.ID, enrolled[0].ID)
}

func TestCourseServiceJoinRejectsUnknownCode(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_join_unknown")

	_, err := svc.Join(context.Background(), 2, "ZZZZZZ")
	require.ErrorIs(t, err, ErrInvalidAccessCode)
}

func TestCourseServiceJoinRejectsDuplicateEnrollment(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_join_dup")

	course, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Databases"})
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), 2, course.AccessCode)
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), 2, course.AccessCode)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestCourseServiceUpdateRequiresOwnership(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_ownership")

	course, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Databases"})
	require.NoError(t, err)

	name := "Advanced Databases"
	_, err = svc.Update(context.Background(), course.ID, 99, dto.CourseUpdateRequest{Name: &name})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	err = svc.Delete(context.Background(), course.ID, 99)
	require.ErrorIs(t, err, ErrNotCourseOwner)

	updated, err := svc.Update(context.Background(), course.ID, 1, dto.CourseUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, course.AccessCode, updated.AccessCode, "access code is immutable")
}

func TestCourseServiceRemoveStudent(t *testing.T) {
	svc, _ := newCourseTestService(t, "course_remove")

	course, err := svc.Create(context.Background(), 1, dto.CourseCreateRequest{Name: "Databases"})
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), 2, course.AccessCode)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveStudent(context.Background(), course.ID, 2))

	enrolled, err := svc.ListEnrolled(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, enrolled)

	// Removal makes the seat joinable again.
	_, err = svc.Join(context.Background(), 2, course.AccessCode)
	require.NoError(t, err)
}
