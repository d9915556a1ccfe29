package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrInvalidRepositoryURL indicates the git URL is outside the allow-list.
	ErrInvalidRepositoryURL = errors.New("invalid git repository url")
	// ErrFileRequired indicates an upload request arrived without a file part.
	ErrFileRequired = errors.New("submission file is required")
	// ErrUnsupportedFileType indicates the uploaded archive is not a ZIP.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// gitRepoPattern allow-lists github.com and gitlab.com repository paths.
// Checked before any persistence happens.
var gitRepoPattern = regexp.MustCompile(`^https://(github\.com|gitlab\.com)/[\w.-]+/[\w.-]+/?$`)

// FileUploader stores an uploaded archive and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// CommitResolver looks up the newest commit of a repository using the
// student's linked token. Failures are treated as best-effort by callers.
type CommitResolver interface {
	LatestCommitSHA(ctx context.Context, token, repoURL string) (string, error)
}

// SubmissionService is the versioning engine: it owns the locate-or-create
// rule, file/git mutual exclusivity, and automatic version snapshots.
type SubmissionService interface {
	UploadFile(ctx context.Context, payload dto.SubmissionUploadRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	LinkGitRepository(ctx context.Context, payload dto.SubmissionGitRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, payload dto.SubmissionContentRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	GetByProjectAndUser(ctx context.Context, projectID, userID uint) (dto.SubmissionResponse, error)
	ListByProject(ctx context.Context, projectID uint) ([]dto.SubmissionResponse, error)
	Versions(ctx context.Context, submissionID uint) ([]dto.SubmissionVersionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	validator   *validator.Validate
	uploader    FileUploader
	commits     CommitResolver
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository, validate *validator.Validate, uploader FileUploader, commits CommitResolver, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		projects:    projectRepo,
		users:       userRepo,
		validator:   validate,
		uploader:    uploader,
		commits:     commits,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// deliverable describes one mutation of the submission's current work.
type deliverable struct {
	fileURL       *string
	gitRepository *string
	content       *string
	commitHash    *string
}

func (s *submissionService) UploadFile(ctx context.Context, payload dto.SubmissionUploadRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, ErrFileRequired
	}

	if _, err := s.projects.GetByID(ctx, payload.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrProjectNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := validateArchiveType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return s.applyDeliverable(ctx, payload.ProjectID, payload.UserID, deliverable{fileURL: &uploadURL})
}

func (s *submissionService) LinkGitRepository(ctx context.Context, payload dto.SubmissionGitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	repoURL := strings.TrimSpace(payload.GitRepositoryURL)
	if !gitRepoPattern.MatchString(repoURL) {
		return dto.SubmissionResponse{}, ErrInvalidRepositoryURL
	}

	if _, err := s.projects.GetByID(ctx, payload.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrProjectNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// Best-effort commit capture for GitHub repositories of linked users.
	// Resolution failure never blocks the submission; the hash stays nil.
	var commitHash *string
	if strings.Contains(repoURL, "github.com") {
		if sha := s.resolveCommitHash(ctx, payload.UserID, repoURL); sha != "" {
			commitHash = &sha
		}
	}

	change := deliverable{gitRepository: &repoURL, commitHash: commitHash}
	if payload.Content != nil {
		change.content = payload.Content
	}

	return s.applyDeliverable(ctx, payload.ProjectID, payload.UserID, change)
}

func (s *submissionService) resolveCommitHash(ctx context.Context, userID uint, repoURL string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || !user.HasGitHubLinked() {
		return ""
	}

	sha, err := s.commits.LatestCommitSHA(ctx, *user.GitHubToken, repoURL)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Str("repo", repoURL).Msg("commit hash resolution failed")
		return ""
	}

	return sha
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionContentRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.projects.GetByID(ctx, payload.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrProjectNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return s.applyDeliverable(ctx, payload.ProjectID, payload.UserID, deliverable{content: &payload.Content})
}

// applyDeliverable locates or creates the submission for (project, user),
// mutates its current state, and appends exactly one version snapshot.
// Submission identity is stable across resubmissions. A fresh deliverable
// resets the review status to pending while leaving the prior grade in place.
func (s *submissionService) applyDeliverable(ctx context.Context, projectID, userID uint, change deliverable) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}

		submission = models.ProjectSubmission{
			ProjectID:    projectID,
			UserID:       userID,
			ReviewStatus: models.ReviewStatusPending,
		}
		applyChange(&submission, change)

		if err := s.submissions.Create(ctx, &submission); err != nil {
			// A racing first submission loses to the unique index; fall
			// back to updating the row that won.
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return dto.SubmissionResponse{}, err
			}
			submission, err = s.submissions.GetByProjectAndUser(ctx, projectID, userID)
			if err != nil {
				return dto.SubmissionResponse{}, err
			}
			applyChange(&submission, change)
			submission.ReviewStatus = models.ReviewStatusPending
			if err := s.submissions.Update(ctx, &submission); err != nil {
				return dto.SubmissionResponse{}, err
			}
		}
	} else {
		applyChange(&submission, change)
		submission.ReviewStatus = models.ReviewStatusPending
		if err := s.submissions.Update(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	version := models.ProjectSubmissionVersion{
		SubmissionID:  submission.ID,
		FileURL:       submission.FileURL,
		GitCommitHash: change.commitHash,
		Content:       submission.Content,
	}
	if err := s.submissions.AppendVersion(ctx, &version); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("version", version.VersionNumber).
		Msg("submission deliverable updated")

	reloaded, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(reloaded), nil
}

// applyChange mutates the submission's current state. File and git
// deliverables are mutually exclusive: setting one clears the other.
func applyChange(submission *models.ProjectSubmission, change deliverable) {
	if change.fileURL != nil {
		submission.FileURL = change.fileURL
		submission.GitRepositoryURL = nil
	}
	if change.gitRepository != nil {
		submission.GitRepositoryURL = change.gitRepository
		submission.FileURL = nil
	}
	if change.content != nil {
		submission.Content = *change.content
	}
}

// Grade records a grade and feedback on the current submission row. Grading
// is not a deliverable change and never creates a version.
func (s *submissionService) Grade(ctx context.Context, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Grade = &payload.Grade
	if payload.Feedback != nil {
		submission.Feedback = *payload.Feedback
	}
	submission.ReviewStatus = models.ReviewStatusReviewed

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Float64("grade", payload.Grade).Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) GetByProjectAndUser(ctx context.Context, projectID, userID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByProject(ctx context.Context, projectID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Versions(ctx context.Context, submissionID uint) ([]dto.SubmissionVersionResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	versions, err := s.submissions.ListVersions(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionVersionResponseSlice(versions), nil
}

func validateArchiveType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/zip", "application/x-zip-compressed"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
