package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// EnrollmentRepository defines data operations for course enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Exists(ctx context.Context, userID, courseID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error)
	Delete(ctx context.Context, userID, courseID uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, userID, courseID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Delete(&models.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
