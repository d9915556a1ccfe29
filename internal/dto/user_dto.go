package dto

import (
	"time"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// UserRoleUpdateRequest mutates a user's role; admin only.
type UserRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=student professor admin"`
}

// UserResponse is returned to API clients when viewing users. The GitHub
// token itself is never exposed, only whether one is linked.
type UserResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	GitHubConnected bool      `json:"github_connected"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserLite summarizes a user inside nested responses.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:              model.ID,
		Name:            model.Name,
		Email:           model.Email,
		Role:            model.Role,
		GitHubConnected: model.HasGitHubLinked(),
		CreatedAt:       model.CreatedAt,
	}
}

// NewUserLite converts a User model into its nested summary.
func NewUserLite(model models.User) UserLite {
	return UserLite{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
	}
}
