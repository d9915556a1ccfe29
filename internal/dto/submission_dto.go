package dto

import (
	"time"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// SubmissionUploadRequest describes the multipart payload for a ZIP upload.
type SubmissionUploadRequest struct {
	ProjectID uint `form:"project_id" validate:"required,gt=0"`
	UserID    uint `form:"user_id" validate:"required,gt=0"`
}

// SubmissionGitRequest links a git repository as the current deliverable.
type SubmissionGitRequest struct {
	ProjectID        uint    `json:"project_id" validate:"required,gt=0"`
	UserID           uint    `json:"user_id" validate:"required,gt=0"`
	GitRepositoryURL string  `json:"git_repository_url" validate:"required,url"`
	Content          *string `json:"content" validate:"omitempty,max=10000"`
}

// SubmissionContentRequest submits free-text content.
type SubmissionContentRequest struct {
	ProjectID uint   `json:"project_id" validate:"required,gt=0"`
	UserID    uint   `json:"user_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,max=10000"`
}

// SubmissionGradeRequest records a grade on the 0-20 scale used by the
// institution; the bound is enforced here, not inside the engine.
type SubmissionGradeRequest struct {
	Grade    float64 `json:"grade" validate:"gte=0,lte=20"`
	Feedback *string `json:"feedback" validate:"omitempty,max=10000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint        `json:"id"`
	ProjectID        uint        `json:"project_id"`
	UserID           uint        `json:"user_id"`
	Content          string      `json:"content"`
	FileURL          *string     `json:"file_url"`
	GitRepositoryURL *string     `json:"git_repository_url"`
	Grade            *float64    `json:"grade"`
	Feedback         string      `json:"feedback"`
	ReviewStatus     string      `json:"review_status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Project          ProjectLite `json:"project"`
	User             UserLite    `json:"user"`
}

// SubmissionVersionResponse serializes an immutable version snapshot.
type SubmissionVersionResponse struct {
	ID            uint      `json:"id"`
	SubmissionID  uint      `json:"submission_id"`
	VersionNumber int       `json:"version_number"`
	FileURL       *string   `json:"file_url"`
	GitCommitHash *string   `json:"git_commit_hash"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewSubmissionResponse converts a ProjectSubmission model into a DTO.
func NewSubmissionResponse(model models.ProjectSubmission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		ProjectID:        model.ProjectID,
		UserID:           model.UserID,
		Content:          model.Content,
		FileURL:          model.FileURL,
		GitRepositoryURL: model.GitRepositoryURL,
		Grade:            model.Grade,
		Feedback:         model.Feedback,
		ReviewStatus:     model.ReviewStatus,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.Project.ID != 0 {
		response.Project = ProjectLite{
			ID:      model.Project.ID,
			Title:   model.Project.Title,
			DueDate: model.Project.DueDate,
		}
	}

	if model.User.ID != 0 {
		response.User = NewUserLite(model.User)
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.ProjectSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// NewSubmissionVersionResponseSlice converts version models into DTOs.
func NewSubmissionVersionResponseSlice(models []models.ProjectSubmissionVersion) []SubmissionVersionResponse {
	responses := make([]SubmissionVersionResponse, 0, len(models))
	for _, version := range models {
		responses = append(responses, SubmissionVersionResponse{
			ID:            version.ID,
			SubmissionID:  version.SubmissionID,
			VersionNumber: version.VersionNumber,
			FileURL:       version.FileURL,
			GitCommitHash: version.GitCommitHash,
			Content:       version.Content,
			CreatedAt:     version.CreatedAt,
		})
	}

	return responses
}
