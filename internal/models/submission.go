package models

import "time"

// ProjectSubmission is the single mutable record of a student's work on one
// project. Identity is stable across resubmissions: the row is created on the
// first upload/link/submit and updated in place afterwards. FileURL and
// GitRepositoryURL are mutually exclusive; setting one clears the other.
type ProjectSubmission struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProjectID        uint      `gorm:"not null;uniqueIndex:idx_submission_project_user" json:"project_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_submission_project_user" json:"user_id"`
	Content          string    `gorm:"type:text" json:"content"`
	FileURL          *string   `gorm:"size:512" json:"file_url"`
	GitRepositoryURL *string   `gorm:"size:512" json:"git_repository_url"`
	Grade            *float64  `json:"grade"`
	Feedback         string    `gorm:"type:text" json:"feedback"`
	ReviewStatus     string    `gorm:"size:32;not null;default:PENDING" json:"review_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Project          Project   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"project"`
	User             User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

const (
	// ReviewStatusPending marks a submission awaiting professor review.
	ReviewStatusPending = "PENDING"
	// ReviewStatusReviewed marks a submission the professor has reviewed.
	ReviewStatusReviewed = "REVIEWED"
)

// IsGraded reports whether a grade has been recorded.
func (s ProjectSubmission) IsGraded() bool {
	return s.Grade != nil
}

// ProjectSubmissionVersion is an immutable snapshot taken each time a
// submission's deliverable changes. Rows are append-only; the unique index on
// (submission_id, version_number) guards against duplicate numbering.
type ProjectSubmissionVersion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubmissionID  uint      `gorm:"not null;uniqueIndex:idx_version_submission_number" json:"submission_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_version_submission_number" json:"version_number"`
	FileURL       *string   `gorm:"size:512" json:"file_url"`
	GitCommitHash *string   `gorm:"size:64" json:"git_commit_hash"`
	Content       string    `gorm:"type:text" json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
