package dto

import (
	"time"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// CommentCreateRequest posts a comment or a reply on a submission.
type CommentCreateRequest struct {
	Content      string `json:"content" validate:"required,min=1,max=10000"`
	SubmissionID uint   `json:"submission_id" validate:"required,gt=0"`
	UserID       uint   `json:"user_id" validate:"required,gt=0"`
	ParentID     *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

// CommentUpdateRequest edits a comment's content.
type CommentUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// ReviewStatusUpdateRequest flips a submission's review state.
type ReviewStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING REVIEWED"`
}

// CommentResponse is returned to API clients when viewing comments.
type CommentResponse struct {
	ID           uint      `json:"id"`
	Content      string    `json:"content"`
	SubmissionID uint      `json:"submission_id"`
	UserID       uint      `json:"user_id"`
	ParentID     *uint     `json:"parent_id"`
	CreatedAt    time.Time `json:"created_at"`
	User         UserLite  `json:"user"`
}

// CommentThreadResponse is a root comment with its direct replies inlined.
type CommentThreadResponse struct {
	CommentResponse
	Replies []CommentResponse `json:"replies"`
}

// NewCommentResponse converts a SubmissionComment model into a DTO.
func NewCommentResponse(model models.SubmissionComment) CommentResponse {
	response := CommentResponse{
		ID:           model.ID,
		Content:      model.Content,
		SubmissionID: model.SubmissionID,
		UserID:       model.UserID,
		ParentID:     model.ParentID,
		CreatedAt:    model.CreatedAt,
	}

	if model.User.ID != 0 {
		response.User = NewUserLite(model.User)
	}

	return response
}
