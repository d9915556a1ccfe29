package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/repository"
	"github.com/debtcleaner/debtcleaner-api/pkg/githubapi"
)

// ErrGitHubNotConnected indicates the user has no linked GitHub account.
// Explicit GitHub-backed features fail hard on it; the passive commit-hash
// capture during submission never does.
var ErrGitHubNotConnected = errors.New("no github account connected")

// GitHubService manages the OAuth linkage between users and GitHub and the
// commit-listing feature built on top of it.
type GitHubService interface {
	AuthorizeURL(state string) string
	CompleteAuthorization(ctx context.Context, userID uint, code string) error
	IsConnected(ctx context.Context, userID uint) (bool, error)
	Disconnect(ctx context.Context, userID uint) error
	ListCommits(ctx context.Context, userID uint, repoURL string, limit int) ([]githubapi.Commit, error)
}

type githubService struct {
	users  repository.UserRepository
	client githubapi.Client
	logger zerolog.Logger
}

// NewGitHubService constructs a GitHubService instance.
func NewGitHubService(users repository.UserRepository, client githubapi.Client, logger zerolog.Logger) GitHubService {
	return &githubService{
		users:  users,
		client: client,
		logger: logger.With().Str("component", "github_service").Logger(),
	}
}

func (s *githubService) AuthorizeURL(state string) string {
	return s.client.AuthorizeURL(state)
}

func (s *githubService) CompleteAuthorization(ctx context.Context, userID uint, code string) error {
	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("github code exchange failed")
		return ErrInvalidToken
	}

	if err := s.users.SaveGitHubToken(ctx, userID, &token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("github account linked")

	return nil
}

func (s *githubService) IsConnected(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	return user.HasGitHubLinked(), nil
}

func (s *githubService) Disconnect(ctx context.Context, userID uint) error {
	if err := s.users.SaveGitHubToken(ctx, userID, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

// ListCommits requires a connected account; unlike the passive hash capture,
// the caller asked for GitHub data explicitly.
func (s *githubService) ListCommits(ctx context.Context, userID uint, repoURL string, limit int) ([]githubapi.Commit, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.HasGitHubLinked() {
		return nil, ErrGitHubNotConnected
	}

	if _, _, err := githubapi.ParseRepoURL(repoURL); err != nil {
		return nil, err
	}

	return s.client.ListCommits(ctx, *user.GitHubToken, repoURL, limit)
}
