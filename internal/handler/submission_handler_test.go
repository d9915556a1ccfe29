package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/config"
	"github.com/debtcleaner/debtcleaner-api/internal/handler"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
	"github.com/debtcleaner/debtcleaner-api/internal/router"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
)

type testUploader struct{}

func (testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

type testCommitResolver struct{}

func (testCommitResolver) LatestCommitSHA(context.Context, string, string) (string, error) {
	return "", nil
}

// headerAuth substitutes the JWT middleware: the test drives identity and
// role through request headers.
func headerAuth(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Get("X-Test-User", "1"))
	c.Locals("user_id", uint(id))
	c.Locals("user_role", c.Get("X-Test-Role", models.RoleStudent))
	return c.Next()
}

func setupSubmissionApp(t *testing.T, name string) (*fiber.App, *gorm.DB, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Course{}, &models.Project{},
		&models.ProjectSubmission{}, &models.ProjectSubmissionVersion{}, &models.SubmissionComment{}))

	student := models.User{Name: "Jane Doe", Email: name + "@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)
	course := models.Course{Name: "Databases", AccessCode: "AB" + strconv.Itoa(1000+len(name)), CreatorID: 99}
	require.NoError(t, db.Create(&course).Error)
	project := models.Project{Title: "Final project", DueDate: time.Now().Add(48 * time.Hour), CourseID: course.ID}
	require.NoError(t, db.Create(&project).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	submissionRepo := repository.NewSubmissionRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)

	submissionService := service.NewSubmissionService(submissionRepo, projectRepo, userRepo, validate, testUploader{}, testCommitResolver{}, logger)
	commentService := service.NewCommentService(repository.NewCommentRepository(db), submissionRepo, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		CommentHandler:    handler.NewCommentHandler(commentService, logger),
		ProjectHandler:    handler.NewProjectHandler(service.NewProjectService(projectRepo, repository.NewCourseRepository(db), validate, logger), logger),
		Authenticate:      headerAuth,
	})

	return app, db, project.ID
}

func newZipUploadRequest(t *testing.T, projectID uint) *http.Request {
	t.Helper()

	archive := &bytes.Buffer{}
	zipWriter := zip.NewWriter(archive)
	entry, err := zipWriter.Create("main.go")
	require.NoError(t, err)
	_, err = entry.Write([]byte("package main\n"))
	require.NoError(t, err)
	require.NoError(t, zipWriter.Close())

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	require.NoError(t, form.WriteField("project_id", strconv.FormatUint(uint64(projectID), 10)))
	part, err := form.CreateFormFile("file", "work.zip")
	require.NoError(t, err)
	_, err = part.Write(archive.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/submissions/upload", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func TestSubmissionHandlerUploadLinkAndGrade(t *testing.T) {
	app, _, projectID := setupSubmissionApp(t, "handler_flow")

	resp, err := app.Test(newZipUploadRequest(t, projectID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	var submission struct {
		ID      uint    `json:"id"`
		FileURL *string `json:"file_url"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &submission))
	require.NotNil(t, submission.FileURL)

	// Linking a repository replaces the file deliverable.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/projects/submissions/git", fiber.Map{
		"project_id":         projectID,
		"git_repository_url": "https://github.com/jane/final-project",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	var linked struct {
		ID               uint    `json:"id"`
		FileURL          *string `json:"file_url"`
		GitRepositoryURL *string `json:"git_repository_url"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &linked))
	require.Equal(t, submission.ID, linked.ID)
	require.Nil(t, linked.FileURL)
	require.NotNil(t, linked.GitRepositoryURL)

	target := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, target+"/versions", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	var versions []struct {
		VersionNumber int `json:"version_number"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &versions))
	require.Len(t, versions, 2)
	require.Equal(t, 1, versions[0].VersionNumber)
	require.Equal(t, 2, versions[1].VersionNumber)

	// Students cannot grade.
	gradeReq := jsonRequest(t, http.MethodPatch, target+"/grade", fiber.Map{"grade": 16.5})
	resp, err = app.Test(gradeReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	gradeReq = jsonRequest(t, http.MethodPatch, target+"/grade", fiber.Map{"grade": 16.5, "feedback": "well done"})
	gradeReq.Header.Set("X-Test-User", "99")
	gradeReq.Header.Set("X-Test-Role", models.RoleProfessor)
	resp, err = app.Test(gradeReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	var graded struct {
		Grade        *float64 `json:"grade"`
		ReviewStatus string   `json:"review_status"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &graded))
	require.NotNil(t, graded.Grade)
	require.Equal(t, models.ReviewStatusReviewed, graded.ReviewStatus)

	// Grading added no version.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, target+"/versions", nil))
	require.NoError(t, err)
	envelope = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(envelope.Data, &versions))
	require.Len(t, versions, 2)
}

func TestSubmissionHandlerRejectsInvalidRepository(t *testing.T) {
	app, _, projectID := setupSubmissionApp(t, "handler_badrepo")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/projects/submissions/git", fiber.Map{
		"project_id":         projectID,
		"git_repository_url": "https://bitbucket.org/jane/project",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerCommentsThread(t *testing.T) {
	app, db, projectID := setupSubmissionApp(t, "handler_comments")

	submission := models.ProjectSubmission{ProjectID: projectID, UserID: 1, ReviewStatus: models.ReviewStatusPending}
	require.NoError(t, db.Create(&submission).Error)

	target := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10) + "/comments"

	resp, err := app.Test(jsonRequest(t, http.MethodPost, target, fiber.Map{"content": "looks good"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	var root struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &root))

	resp, err = app.Test(jsonRequest(t, http.MethodPost, target, fiber.Map{"content": "thanks!", "parent_id": root.ID}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	var threads []struct {
		ID      uint `json:"id"`
		Replies []struct {
			ID uint `json:"id"`
		} `json:"replies"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &threads))
	require.Len(t, threads, 1)
	require.Equal(t, root.ID, threads[0].ID)
	require.Len(t, threads[0].Replies, 1)
}
