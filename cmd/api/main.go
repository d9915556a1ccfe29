package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/debtcleaner/debtcleaner-api/internal/config"
	"github.com/debtcleaner/debtcleaner-api/internal/database"
	"github.com/debtcleaner/debtcleaner-api/internal/handler"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/observability"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
	"github.com/debtcleaner/debtcleaner-api/internal/router"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
	cloud "github.com/debtcleaner/debtcleaner-api/pkg/cloudinary"
	"github.com/debtcleaner/debtcleaner-api/pkg/githubapi"
	"github.com/debtcleaner/debtcleaner-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Project{},
		&models.ProjectSubmission{},
		&models.ProjectSubmissionVersion{},
		&models.SubmissionComment{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	mail, err := mailer.NewSendgrid(mailer.Config{
		APIKey:      cfg.SendgridAPIKey,
		FromName:    cfg.MailFromName,
		FromAddress: cfg.MailFromAddress,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}

	githubClient := githubapi.New(githubapi.Config{
		ClientID:       cfg.GitHubClientID,
		ClientSecret:   cfg.GitHubClientSecret,
		RedirectURL:    cfg.GitHubRedirectURL,
		RequestTimeout: cfg.GitHubRequestTimeout,
	}, logger)

	googleProvider := service.NewGoogleProvider(service.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())
	observability.RegisterMetrics()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	tokenService := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	authService := service.NewAuthService(userRepo, redisClient, tokenService, mail, googleProvider, validate, cfg.LoginCodeTTL, cfg.AllowedEmailDomain, cfg.AppName, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, validate, logger)
	projectService := service.NewProjectService(projectRepo, courseRepo, validate, logger)
	githubService := service.NewGitHubService(userRepo, githubClient, logger)
	submissionService := service.NewSubmissionService(submissionRepo, projectRepo, userRepo, validate, uploader, githubClient, logger)
	commentService := service.NewCommentService(commentRepo, submissionRepo, validate, logger)

	cookies := middleware.CookieConfig{
		Path:   "/api/v1/auth",
		Secure: cfg.IsProduction(),
		MaxAge: cfg.RefreshTokenTTL,
	}

	authHandler := handler.NewAuthHandler(authService, cookies, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	courseHandler := handler.NewCourseHandler(courseService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	commentHandler := handler.NewCommentHandler(commentService, logger)
	githubHandler := handler.NewGitHubHandler(githubService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		CourseHandler:     courseHandler,
		ProjectHandler:    projectHandler,
		SubmissionHandler: submissionHandler,
		CommentHandler:    commentHandler,
		GitHubHandler:     githubHandler,
		Authenticate:      middleware.Authenticate(tokenService, authService, cookies),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Msg("server started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
