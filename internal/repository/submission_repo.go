package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// SubmissionRepository defines data operations for project submissions and
// their version history.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.ProjectSubmission, error)
	GetByProjectAndUser(ctx context.Context, projectID, userID uint) (models.ProjectSubmission, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.ProjectSubmission, error)
	ListByUser(ctx context.Context, userID uint) ([]models.ProjectSubmission, error)
	Create(ctx context.Context, submission *models.ProjectSubmission) error
	Update(ctx context.Context, submission *models.ProjectSubmission) error
	UpdateReviewStatus(ctx context.Context, id uint, status string) error
	AppendVersion(ctx context.Context, version *models.ProjectSubmissionVersion) error
	ListVersions(ctx context.Context, submissionID uint) ([]models.ProjectSubmissionVersion, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProjectSubmission{}).
		Preload("Project").
		Preload("User")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.ProjectSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByProjectAndUser(ctx context.Context, projectID, userID uint) (models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	err := r.baseQuery(ctx).
		Where("project_id = ?", projectID).
		Where("user_id = ?", userID).
		First(&submission).Error
	if err != nil {
		return models.ProjectSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByProject(ctx context.Context, projectID uint) ([]models.ProjectSubmission, error) {
	var submissions []models.ProjectSubmission
	if err := r.baseQuery(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uint) ([]models.ProjectSubmission, error) {
	var submissions []models.ProjectSubmission
	if err := r.baseQuery(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.ProjectSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.ProjectSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) UpdateReviewStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.ProjectSubmission{}).
		Where("id = ?", id).
		Update("review_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// AppendVersion inserts a version snapshot numbered max(existing)+1 inside a
// transaction. The unique index on (submission_id, version_number) catches a
// racing writer; a single retry recomputes the number before giving up.
func (r *submissionRepository) AppendVersion(ctx context.Context, version *models.ProjectSubmissionVersion) error {
	const attempts = 2

	var err error
	for i := 0; i < attempts; i++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxNumber int
			row := tx.Model(&models.ProjectSubmissionVersion{}).
				Where("submission_id = ?", version.SubmissionID).
				Select("COALESCE(MAX(version_number), 0)").
				Row()
			if scanErr := row.Scan(&maxNumber); scanErr != nil {
				return scanErr
			}

			version.ID = 0
			version.VersionNumber = maxNumber + 1

			return tx.Create(version).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}

	return err
}

func (r *submissionRepository) ListVersions(ctx context.Context, submissionID uint) ([]models.ProjectSubmissionVersion, error) {
	var versions []models.ProjectSubmissionVersion
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("version_number ASC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}

	return versions, nil
}
