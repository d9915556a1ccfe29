package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
	"github.com/debtcleaner/debtcleaner-api/pkg/mailer"
)

var (
	// ErrNeedsRegistration signals an unknown email without a name to
	// register it; clients re-prompt for a name on this error.
	ErrNeedsRegistration = errors.New("user does not exist, registration requires a name")
	// ErrInvalidOrExpiredCode covers absent, expired, and mismatched login
	// codes alike; no distinction is leaked to the caller.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired login code")
	// ErrUserNotFound indicates the referenced user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// loginCodeKey scopes one live code per email; issuing a new code overwrites
// the previous one.
func loginCodeKey(email string) string {
	return "login:" + email
}

// consumeCodeScript deletes the stored code only when it matches the
// submitted one. A mismatched attempt leaves the still-valid code in place,
// while two racing correct attempts cannot both observe a match.
var consumeCodeScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// OAuthIdentityProvider resolves a third-party authorization code to an
// identity. Failures surface as domain errors, never provider detail.
type OAuthIdentityProvider interface {
	Identity(ctx context.Context, code string) (name, email string, err error)
}

// AuthService drives the passwordless login protocol: code issuance and
// verification, token refresh, and the OAuth entry path.
type AuthService interface {
	RequestCode(ctx context.Context, payload dto.RequestCodeRequest) (dto.RequestCodeResponse, error)
	VerifyCode(ctx context.Context, payload dto.VerifyCodeRequest) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	AuthenticateWithGoogle(ctx context.Context, code string) (TokenPair, error)
}

type authService struct {
	users       repository.UserRepository
	codes       *redis.Client
	tokens      TokenService
	mail        mailer.Mailer
	google      OAuthIdentityProvider
	validator   *validator.Validate
	codeTTL     time.Duration
	emailDomain string
	appName     string
	logger      zerolog.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, codes *redis.Client, tokens TokenService, mail mailer.Mailer, google OAuthIdentityProvider, validate *validator.Validate, codeTTL time.Duration, emailDomain, appName string, logger zerolog.Logger) AuthService {
	return &authService{
		users:       users,
		codes:       codes,
		tokens:      tokens,
		mail:        mail,
		google:      google,
		validator:   validate,
		codeTTL:     codeTTL,
		emailDomain: emailDomain,
		appName:     appName,
		logger:      logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) RequestCode(ctx context.Context, payload dto.RequestCodeRequest) (dto.RequestCodeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RequestCodeResponse{}, err
	}

	email, err := models.ParseEmail(payload.Email, s.emailDomain)
	if err != nil {
		return dto.RequestCodeResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, email.String())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RequestCodeResponse{}, err
		}

		if payload.Name == "" {
			return dto.RequestCodeResponse{}, ErrNeedsRegistration
		}

		user = models.User{Name: payload.Name, Email: email.String(), Role: models.RoleStudent}
		if err := s.users.Create(ctx, &user); err != nil {
			return dto.RequestCodeResponse{}, err
		}

		s.logger.Info().Str("email", user.Email).Msg("user registered on first code request")
	}

	code, err := generateLoginCode()
	if err != nil {
		return dto.RequestCodeResponse{}, err
	}

	if err := s.codes.Set(ctx, loginCodeKey(user.Email), code, s.codeTTL).Err(); err != nil {
		return dto.RequestCodeResponse{}, fmt.Errorf("failed to store login code: %w", err)
	}

	s.dispatchCodeEmail(user, code)

	return dto.RequestCodeResponse{UserExists: true}, nil
}

// dispatchCodeEmail sends the code asynchronously so a slow mailer cannot
// block the request. Delivery failures are logged, not surfaced.
func (s *authService) dispatchCodeEmail(user models.User, code string) {
	msg := mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s login code", s.appName),
		Text:    fmt.Sprintf("Hi %s,\n\nYour login code is %s. It expires in %d minutes.", user.Name, code, int(s.codeTTL.Minutes())),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to deliver login code email")
		}
	}()
}

func (s *authService) VerifyCode(ctx context.Context, payload dto.VerifyCodeRequest) (TokenPair, error) {
	if err := s.validator.Struct(payload); err != nil {
		return TokenPair{}, err
	}

	email, err := models.ParseEmail(payload.Email, s.emailDomain)
	if err != nil {
		return TokenPair{}, err
	}

	matched, err := consumeCodeScript.Run(ctx, s.codes, []string{loginCodeKey(email.String())}, payload.Code).Int()
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to verify login code: %w", err)
	}
	if matched == 0 {
		return TokenPair{}, ErrInvalidOrExpiredCode
	}

	user, err := s.users.GetByEmail(ctx, email.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("login code verified")

	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Rotation issues a
// new refresh token without revoking the old one; with no server-side token
// state that is the accepted tradeoff.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}

	return s.tokens.IssuePair(user)
}

func (s *authService) AuthenticateWithGoogle(ctx context.Context, code string) (TokenPair, error) {
	if code == "" {
		return TokenPair{}, fmt.Errorf("authorization code must not be empty")
	}

	name, rawEmail, err := s.google.Identity(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google identity resolution failed")
		return TokenPair{}, ErrInvalidToken
	}

	email, err := models.ParseEmail(rawEmail, s.emailDomain)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.GetByEmail(ctx, email.String())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, err
		}

		if name == "" {
			name = email.String()
		}
		user = models.User{Name: name, Email: email.String(), Role: models.RoleStudent}
		if err := s.users.Create(ctx, &user); err != nil {
			return TokenPair{}, err
		}
	}

	return s.tokens.IssuePair(user)
}

// generateLoginCode draws a uniform random 6-digit numeric code. Collisions
// across emails are irrelevant; codes are scoped per email with a short TTL.
func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate login code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
