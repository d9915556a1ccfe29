package models

import "time"

// Project is a task assigned within a course.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `json:"due_date"`
	CourseID    uint      `gorm:"not null" json:"course_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Course      Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// IsPastDue reports whether the project deadline has elapsed at the given time.
func (p Project) IsPastDue(now time.Time) bool {
	return !p.DueDate.IsZero() && now.After(p.DueDate)
}
