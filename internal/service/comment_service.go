package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

var (
	// ErrCommentNotFound indicates a comment could not be found.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrCommentThreadMismatch indicates the parent comment belongs to a
	// different submission.
	ErrCommentThreadMismatch = errors.New("parent comment belongs to another submission")
	// ErrNotCommentAuthor indicates the caller did not write the comment.
	ErrNotCommentAuthor = errors.New("comment belongs to another user")
)

// CommentService manages the one-level-deep discussion threads attached to
// submissions, plus the explicit review-status transition the review UI uses.
type CommentService interface {
	Create(ctx context.Context, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]dto.CommentThreadResponse, error)
	Update(ctx context.Context, id, callerID uint, payload dto.CommentUpdateRequest) (dto.CommentResponse, error)
	Delete(ctx context.Context, id, callerID uint) error
	UpdateReviewStatus(ctx context.Context, submissionID uint, status string) error
}

type commentService struct {
	comments    repository.CommentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(comments repository.CommentRepository, submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:    comments,
		submissions: submissions,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "comment_service").Logger(),
	}
}

func (s *commentService) Create(ctx context.Context, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	if _, err := s.submissions.GetByID(ctx, payload.SubmissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrSubmissionNotFound
		}
		return dto.CommentResponse{}, err
	}

	parentID := payload.ParentID
	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CommentResponse{}, ErrCommentNotFound
			}
			return dto.CommentResponse{}, err
		}

		if parent.SubmissionID != payload.SubmissionID {
			return dto.CommentResponse{}, ErrCommentThreadMismatch
		}

		// Replies to replies flatten onto the root so fetching stays one
		// level deep.
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	comment := models.SubmissionComment{
		Content:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Content)),
		SubmissionID: payload.SubmissionID,
		UserID:       payload.UserID,
		ParentID:     parentID,
	}

	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	s.logger.Info().Uint("comment_id", created.ID).Uint("submission_id", created.SubmissionID).Msg("comment created")

	return dto.NewCommentResponse(created), nil
}

func (s *commentService) ListBySubmission(ctx context.Context, submissionID uint) ([]dto.CommentThreadResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	roots, err := s.comments.ListRoots(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]uint, 0, len(roots))
	for _, root := range roots {
		rootIDs = append(rootIDs, root.ID)
	}

	replies, err := s.comments.ListReplies(ctx, rootIDs)
	if err != nil {
		return nil, err
	}

	repliesByParent := make(map[uint][]dto.CommentResponse, len(roots))
	for _, reply := range replies {
		parent := *reply.ParentID
		repliesByParent[parent] = append(repliesByParent[parent], dto.NewCommentResponse(reply))
	}

	threads := make([]dto.CommentThreadResponse, 0, len(roots))
	for _, root := range roots {
		threads = append(threads, dto.CommentThreadResponse{
			CommentResponse: dto.NewCommentResponse(root),
			Replies:         repliesByParent[root.ID],
		})
	}

	return threads, nil
}

func (s *commentService) Update(ctx context.Context, id, callerID uint, payload dto.CommentUpdateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrCommentNotFound
		}
		return dto.CommentResponse{}, err
	}

	if comment.UserID != callerID {
		return dto.CommentResponse{}, ErrNotCommentAuthor
	}

	comment.Content = strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if err := s.comments.Update(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, id, callerID uint) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.UserID != callerID {
		return ErrNotCommentAuthor
	}

	return s.comments.Delete(ctx, id)
}

// UpdateReviewStatus is the explicit, named operation behind the review UI.
// It replaces the implicit comment-side effect with a deliberate call.
func (s *commentService) UpdateReviewStatus(ctx context.Context, submissionID uint, status string) error {
	if status != models.ReviewStatusPending && status != models.ReviewStatusReviewed {
		return errors.New("unknown review status")
	}

	if err := s.submissions.UpdateReviewStatus(ctx, submissionID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	return nil
}
