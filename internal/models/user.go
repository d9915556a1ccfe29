package models

import "time"

// User is an account in the platform. Users are created on their first
// login-code request; only admins may change roles afterwards.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role        string    `gorm:"size:32;not null;default:student" json:"role"`
	GitHubToken *string   `gorm:"size:512" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	// RoleStudent is the default role assigned at registration.
	RoleStudent = "student"
	// RoleProfessor can create courses and grade submissions.
	RoleProfessor = "professor"
	// RoleAdmin can additionally manage user roles.
	RoleAdmin = "admin"
)

// CanManageCourses reports whether the user may create or mutate courses.
func (u User) CanManageCourses() bool {
	return u.Role == RoleProfessor || u.Role == RoleAdmin
}

// HasGitHubLinked reports whether a GitHub token is stored for the user.
func (u User) HasGitHubLinked() bool {
	return u.GitHubToken != nil && *u.GitHubToken != ""
}
