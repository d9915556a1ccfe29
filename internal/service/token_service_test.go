package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/debtcleaner/debtcleaner-api/internal/models"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestTokenServiceIssueAndVerifyPair(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := models.User{ID: 7, Email: "jane@example.com", Role: models.RoleProfessor}

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.Verify(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "jane@example.com", claims.Email)
	require.Equal(t, models.RoleProfessor, claims.Role)

	refreshClaims, err := svc.Verify(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)
	require.Equal(t, uint(7), refreshClaims.UserID)
}

func TestTokenServiceRejectsCrossKind(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := models.User{ID: 1, Email: "sam@example.com", Role: models.RoleStudent}

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken, TokenKindRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(pair.RefreshToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRejectsCrossKindWithSharedSecret(t *testing.T) {
	cfg := testTokenConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	svc := NewTokenService(cfg)
	user := models.User{ID: 3, Email: "sam@example.com", Role: models.RoleStudent}

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	// The kind claim alone must keep a refresh token from passing as access.
	_, err = svc.Verify(pair.RefreshToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(pair.AccessToken, TokenKindRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	cfg := testTokenConfig()
	issued := time.Now().Add(-time.Hour)
	svc := &tokenService{cfg: cfg, now: func() time.Time { return issued }}

	token, err := svc.IssueAccessToken(models.User{ID: 3, Email: "old@example.com", Role: models.RoleStudent})
	require.NoError(t, err)

	// Verification at real time sees a token issued an hour ago with a
	// fifteen-minute lifetime.
	verifier := NewTokenService(cfg)
	_, err = verifier.Verify(token, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := NewTokenService(testTokenConfig())

	_, err := svc.Verify("not-a-token", TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}
