package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// ProjectRepository defines data operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (models.Project, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func (r *projectRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("due_date ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
