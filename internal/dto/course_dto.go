package dto

import (
	"time"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// CourseUpdateRequest mutates course metadata; the access code is immutable.
type CourseUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// JoinCourseRequest enrolls the caller using a shared access code.
type JoinCourseRequest struct {
	AccessCode string `json:"access_code" validate:"required,len=6,alphanum"`
}

// CourseResponse is returned to API clients when viewing courses.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AccessCode  string    `json:"access_code"`
	CreatorID   uint      `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		AccessCode:  model.AccessCode,
		CreatorID:   model.CreatorID,
		CreatedAt:   model.CreatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(models []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(models))
	for _, course := range models {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
