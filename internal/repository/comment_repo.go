package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// CommentRepository defines data operations for submission comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.SubmissionComment) error
	GetByID(ctx context.Context, id uint) (models.SubmissionComment, error)
	ListRoots(ctx context.Context, submissionID uint) ([]models.SubmissionComment, error)
	ListReplies(ctx context.Context, parentIDs []uint) ([]models.SubmissionComment, error)
	Update(ctx context.Context, comment *models.SubmissionComment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository instantiates the repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.SubmissionComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (models.SubmissionComment, error) {
	var comment models.SubmissionComment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return models.SubmissionComment{}, err
	}

	return comment, nil
}

func (r *commentRepository) ListRoots(ctx context.Context, submissionID uint) ([]models.SubmissionComment, error) {
	var comments []models.SubmissionComment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("submission_id = ?", submissionID).
		Where("parent_id IS NULL").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentIDs []uint) ([]models.SubmissionComment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var comments []models.SubmissionComment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.SubmissionComment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.SubmissionComment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
