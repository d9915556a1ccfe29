package models

import "time"

// SubmissionComment is a threaded comment on a submission. A nil ParentID
// marks a root comment; replies carry the root's ID. Only one level of
// nesting is queried.
type SubmissionComment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	SubmissionID uint      `gorm:"not null" json:"submission_id"`
	UserID       uint      `gorm:"not null" json:"user_id"`
	ParentID     *uint     `json:"parent_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// IsReply reports whether the comment belongs to a thread rather than
// starting one.
func (c SubmissionComment) IsReply() bool {
	return c.ParentID != nil
}
