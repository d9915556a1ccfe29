package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

func newCommentTestService(t *testing.T, name string) (CommentService, *gorm.DB, uint) {
	t.Helper()

	db := setupTestDB(t, name,
		&models.User{}, &models.ProjectSubmission{}, &models.SubmissionComment{})

	user := models.User{Name: "Jane Doe", Email: name + "@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	submission := models.ProjectSubmission{ProjectID: 1, UserID: user.ID, ReviewStatus: models.ReviewStatusPending}
	require.NoError(t, db.Create(&submission).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCommentService(repository.NewCommentRepository(db), repository.NewSubmissionRepository(db), validate, testLogger())
	return svc, db, submission.ID
}

func TestCommentServiceCreateSanitizesContent(t *testing.T) {
	svc, _, submissionID := newCommentTestService(t, "comment_sanitize")

	comment, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content:      `Nice work <script>alert("xss")</script>`,
		SubmissionID: submissionID,
		UserID:       1,
	})
	require.NoError(t, err)
	require.Equal(t, "Nice work", comment.Content)
	require.Nil(t, comment.ParentID)
}

func TestCommentServiceReplyToReplyFlattens(t *testing.T) {
	svc, _, submissionID := newCommentTestService(t, "comment_flatten")

	root, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "root", SubmissionID: submissionID, UserID: 1,
	})
	require.NoError(t, err)

	reply, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "reply", SubmissionID: submissionID, UserID: 1, ParentID: &root.ID,
	})
	require.NoError(t, err)
	require.Equal(t, root.ID, *reply.ParentID)

	nested, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "reply to the reply", SubmissionID: submissionID, UserID: 1, ParentID: &reply.ID,
	})
	require.NoError(t, err)
	require.Equal(t, root.ID, *nested.ParentID, "a reply to a reply attaches to the root")

	threads, err := svc.ListBySubmission(context.Background(), submissionID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, root.ID, threads[0].ID)
	require.Len(t, threads[0].Replies, 2)
}

func TestCommentServiceParentMustShareSubmission(t *testing.T) {
	svc, db, submissionID := newCommentTestService(t, "comment_mismatch")

	other := models.ProjectSubmission{ProjectID: 2, UserID: 1, ReviewStatus: models.ReviewStatusPending}
	require.NoError(t, db.Create(&other).Error)

	root, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "root", SubmissionID: submissionID, UserID: 1,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "stray reply", SubmissionID: other.ID, UserID: 1, ParentID: &root.ID,
	})
	require.ErrorIs(t, err, ErrCommentThreadMismatch)
}

func TestCommentServiceOnlyAuthorMayEdit(t *testing.T) {
	svc, _, submissionID := newCommentTestService(t, "comment_author")

	comment, err := svc.Create(context.Background(), dto.CommentCreateRequest{
		Content: "mine", SubmissionID: submissionID, UserID: 1,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), comment.ID, 99, dto.CommentUpdateRequest{Content: "hijacked"})
	require.ErrorIs(t, err, ErrNotCommentAuthor)

	err = svc.Delete(context.Background(), comment.ID, 99)
	require.ErrorIs(t, err, ErrNotCommentAuthor)

	updated, err := svc.Update(context.Background(), comment.ID, 1, dto.CommentUpdateRequest{Content: "edited"})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.Delete(context.Background(), comment.ID, 1))
	_, err = svc.Update(context.Background(), comment.ID, 1, dto.CommentUpdateRequest{Content: "gone"})
	require.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCommentServiceUpdateReviewStatus(t *testing.T) {
	svc, db, submissionID := newCommentTestService(t, "comment_review")

	require.NoError(t, svc.UpdateReviewStatus(context.Background(), submissionID, models.ReviewStatusReviewed))

	var submission models.ProjectSubmission
	require.NoError(t, db.First(&submission, submissionID).Error)
	require.Equal(t, models.ReviewStatusReviewed, submission.ReviewStatus)

	require.Error(t, svc.UpdateReviewStatus(context.Background(), submissionID, "WHATEVER"))
	require.ErrorIs(t, svc.UpdateReviewStatus(context.Background(), 9999, models.ReviewStatusPending), ErrSubmissionNotFound)
}
