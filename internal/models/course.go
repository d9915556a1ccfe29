package models

import "time"

// Course groups projects and enrolled students under a professor.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	AccessCode  string    `gorm:"size:6;uniqueIndex;not null" json:"access_code"`
	CreatorID   uint      `gorm:"not null" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Creator     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"creator"`
}

// Enrollment links a student to a course. The composite unique index backs
// the one-enrollment-per-course rule; the service checks it before insert so
// duplicates surface as a conflict rather than a raw constraint error.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}
