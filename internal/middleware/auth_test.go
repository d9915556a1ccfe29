package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/debtcleaner/debtcleaner-api/internal/dto"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
)

// stubAuthService satisfies service.AuthService; only Refresh matters here.
type stubAuthService struct {
	pair service.TokenPair
	err  error
}

func (s stubAuthService) RequestCode(context.Context, dto.RequestCodeRequest) (dto.RequestCodeResponse, error) {
	return dto.RequestCodeResponse{}, nil
}

func (s stubAuthService) VerifyCode(context.Context, dto.VerifyCodeRequest) (service.TokenPair, error) {
	return service.TokenPair{}, nil
}

func (s stubAuthService) AuthenticateWithGoogle(context.Context, string) (service.TokenPair, error) {
	return service.TokenPair{}, nil
}

func (s stubAuthService) Refresh(context.Context, string) (service.TokenPair, error) {
	return s.pair, s.err
}

func testTokenService(accessTTL time.Duration) service.TokenService {
	return service.NewTokenService(service.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    time.Hour,
	})
}

func testCookieConfig() CookieConfig {
	return CookieConfig{Path: "/api/v1/auth", Secure: false, MaxAge: 24 * time.Hour}
}

func testMiddlewareApp(t *testing.T, tokens service.TokenService, auth service.AuthService) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/protected", Authenticate(tokens, auth, testCookieConfig()), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"user_id": id, "role": UserRole(c)})
	})
	return app
}

func TestAuthenticateAcceptsValidAccessToken(t *testing.T) {
	tokens := testTokenService(time.Minute)
	app := testMiddlewareApp(t, tokens, stubAuthService{})

	access, err := tokens.IssueAccessToken(models.User{ID: 5, Email: "jane@example.com", Role: models.RoleStudent})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get(AccessTokenHeader), "no rotation on a valid token")
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	app := testMiddlewareApp(t, testTokenService(time.Minute), stubAuthService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateRefreshesExpiredAccessTokenInline(t *testing.T) {
	tokens := testTokenService(time.Minute)
	user := models.User{ID: 9, Email: "jane@example.com", Role: models.RoleProfessor}

	// The expired token comes from a service whose access lifetime already
	// elapsed at issue time.
	expired, err := testTokenService(-time.Minute).IssueAccessToken(user)
	require.NoError(t, err)

	fresh, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	rotatedRefresh, err := tokens.IssueRefreshToken(user)
	require.NoError(t, err)

	auth := stubAuthService{pair: service.TokenPair{AccessToken: fresh, RefreshToken: rotatedRefresh}}
	app := testMiddlewareApp(t, tokens, auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "old-refresh-token"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, fresh, resp.Header.Get(AccessTokenHeader), "the new access token travels in the response header")

	var rotated *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == RefreshCookieName {
			rotated = cookie
		}
	}
	require.NotNil(t, rotated, "the refresh cookie is rotated")
	require.Equal(t, rotatedRefresh, rotated.Value)
	require.True(t, rotated.HttpOnly)
	require.Equal(t, "/api/v1/auth", rotated.Path)
}

func TestAuthenticateExpiredTokenWithoutCookieFails(t *testing.T) {
	tokens := testTokenService(time.Minute)
	user := models.User{ID: 9, Email: "jane@example.com", Role: models.RoleStudent}

	expired, err := testTokenService(-time.Minute).IssueAccessToken(user)
	require.NoError(t, err)

	app := testMiddlewareApp(t, tokens, stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWithRoleGuards(t *testing.T) {
	tokens := testTokenService(time.Minute)
	app := fiber.New()
	app.Get("/grade", Authenticate(tokens, stubAuthService{}, testCookieConfig()), WithRole(func(c *fiber.Ctx) error {
		return c.SendString("ok")
	}, AuthRoleProfessor))

	cases := []struct {
		role   string
		status int
	}{
		{models.RoleStudent, http.StatusForbidden},
		{models.RoleProfessor, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		access, err := tokens.IssueAccessToken(models.User{ID: 1, Email: tc.role + "@example.com", Role: tc.role})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/grade", nil)
		req.Header.Set("Authorization", "Bearer "+access)

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, strings.ToUpper(tc.role))
	}
}
