package dto

import (
	"time"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// ProjectCreateRequest describes the payload for creating a project.
type ProjectCreateRequest struct {
	Title       string    `json:"title" validate:"required,min=2,max=255"`
	Description string    `json:"description" validate:"max=10000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	CourseID    uint      `json:"course_id" validate:"required,gt=0"`
}

// ProjectUpdateRequest mutates project fields.
type ProjectUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	DueDate     *time.Time `json:"due_date"`
}

// ProjectResponse is returned to API clients when viewing projects.
type ProjectResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	CourseID    uint      `json:"course_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectLite summarizes a project inside nested responses.
type ProjectLite struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// NewProjectResponse converts a Project model into a DTO.
func NewProjectResponse(model models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		CourseID:    model.CourseID,
		CreatedAt:   model.CreatedAt,
	}
}

// NewProjectResponseSlice converts project models into DTOs.
func NewProjectResponseSlice(models []models.Project) []ProjectResponse {
	responses := make([]ProjectResponse, 0, len(models))
	for _, project := range models {
		responses = append(responses, NewProjectResponse(project))
	}

	return responses
}
