package githubapi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// Config carries the OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// RequestTimeout bounds every outbound GitHub call.
	RequestTimeout time.Duration
}

// Commit summarizes a repository commit.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// Client talks to GitHub's OAuth and REST APIs on behalf of linked users.
type Client interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	LatestCommitSHA(ctx context.Context, token, repoURL string) (string, error)
	ListCommits(ctx context.Context, token, repoURL string, limit int) ([]Commit, error)
}

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`)

// ErrInvalidRepoURL indicates the URL does not point at a github.com repository.
var ErrInvalidRepoURL = errors.New("not a github repository url")

// ParseRepoURL extracts owner and repository name from a github.com URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	match := repoURLPattern.FindStringSubmatch(repoURL)
	if match == nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}

	return match[1], match[2], nil
}

type client struct {
	oauth   oauth2.Config
	timeout time.Duration
	logger  zerolog.Logger
}

// New constructs a GitHub API client.
func New(cfg Config, logger zerolog.Logger) Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"repo"},
			Endpoint:     githuboauth.Endpoint,
		},
		timeout: timeout,
		logger:  logger.With().Str("component", "githubapi").Logger(),
	}
}

func (c *client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *client) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return token.AccessToken, nil
}

// LatestCommitSHA resolves the newest commit on the repository's default
// branch. Callers treat failure as non-fatal.
func (c *client) LatestCommitSHA(ctx context.Context, token, repoURL string) (string, error) {
	commits, err := c.ListCommits(ctx, token, repoURL, 1)
	if err != nil {
		return "", err
	}
	if len(commits) == 0 {
		return "", nil
	}

	return commits[0].SHA, nil
}

func (c *client) ListCommits(ctx context.Context, token, repoURL string, limit int) ([]Commit, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 30
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gh := github.NewClient(nil).WithAuthToken(token)
	raw, _, err := gh.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("repo", owner+"/"+repo).Msg("github commit listing failed")
		return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}

	commits := make([]Commit, 0, len(raw))
	for _, rc := range raw {
		commit := Commit{SHA: rc.GetSHA()}
		if rc.Commit != nil {
			commit.Message = rc.Commit.GetMessage()
			commit.Date = rc.Commit.GetCommitter().GetDate().Time
		}
		commits = append(commits, commit)
	}

	return commits, nil
}
