package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

// ErrInvalidToken indicates a token failed signature or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenKind distinguishes the two token classes, each signed with its own
// secret and lifetime.
type TokenKind string

const (
	// TokenKindAccess is the short-lived bearer credential.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived renewal credential.
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the payload carried by issued tokens. Refresh tokens carry
// only the user id to limit replay value.
type TokenClaims struct {
	UserID uint
	Email  string
	Role   string
}

// TokenPair bundles the two credentials returned on authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and validates stateless signed tokens. No server-side
// state is consulted; invalidation is purely by expiry.
type TokenService interface {
	IssueAccessToken(user models.User) (string, error)
	IssueRefreshToken(user models.User) (string, error)
	IssuePair(user models.User) (TokenPair, error)
	Verify(token string, kind TokenKind) (TokenClaims, error)
}

// TokenConfig carries signing material and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type tokenService struct {
	cfg TokenConfig
	now func() time.Time
}

type signedClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg TokenConfig) TokenService {
	return &tokenService{cfg: cfg, now: time.Now}
}

func (s *tokenService) IssueAccessToken(user models.User) (string, error) {
	now := s.now()
	claims := signedClaims{
		Email: user.Email,
		Role:  user.Role,
		Kind:  string(TokenKindAccess),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

func (s *tokenService) IssueRefreshToken(user models.User) (string, error) {
	now := s.now()
	claims := signedClaims{
		Kind: string(TokenKindRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signed, nil
}

func (s *tokenService) IssuePair(user models.User) (TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *tokenService) Verify(tokenString string, kind TokenKind) (TokenClaims, error) {
	secret := s.cfg.AccessSecret
	if kind == TokenKindRefresh {
		secret = s.cfg.RefreshSecret
	}

	var claims signedClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}

	// The kind claim backstops the distinct secrets; a token of one class
	// never validates as the other even with shared signing material.
	if claims.Kind != string(kind) {
		return TokenClaims{}, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return TokenClaims{}, ErrInvalidToken
	}

	return TokenClaims{
		UserID: uint(userID),
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
