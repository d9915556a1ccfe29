package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// CourseRepository defines data operations for courses.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetByAccessCode(ctx context.Context, code string) (models.Course, error)
	AccessCodeExists(ctx context.Context, code string) (bool, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Creator").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) GetByAccessCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("access_code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("access_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *courseRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
