package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/debtcleaner/debtcleaner-api/internal/config"
	"github.com/debtcleaner/debtcleaner-api/internal/handler"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/models"
	"github.com/debtcleaner/debtcleaner-api/internal/repository"
	"github.com/debtcleaner/debtcleaner-api/internal/router"
	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/pkg/mailer"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	defer resp.Body.Close()
	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(body).Encode(payload))
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type testMailer struct{}

func (testMailer) Send(_ context.Context, _ mailer.Message) error { return nil }

func setupAuthApp(t *testing.T, name string) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	auth := service.NewAuthService(repository.NewUserRepository(db), redisClient, tokens, testMailer{}, nil, validate, 5*time.Minute, "", "DebtCleaner", logger)

	cookies := middleware.CookieConfig{Path: "/api/v1/auth", Secure: false, MaxAge: 24 * time.Hour}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AuthHandler:  handler.NewAuthHandler(auth, cookies, logger),
		Authenticate: middleware.Authenticate(tokens, auth, cookies),
	})

	return app, mini
}

func TestAuthHandlerLoginFlow(t *testing.T) {
	app, mini := setupAuthApp(t, "auth_flow")

	// Unknown email without a name is a conflict, not a silent registration.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login/code", fiber.Map{"email": "jane@example.com"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login/code", fiber.Map{"email": "jane@example.com", "name": "Jane Doe"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := mini.Get("login:jane@example.com")
	require.NoError(t, err)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login/verify", fiber.Map{"email": "jane@example.com", "code": code}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	var tokensPayload struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &tokensPayload))
	require.NotEmpty(t, tokensPayload.AccessToken)

	var refresh *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.RefreshCookieName {
			refresh = cookie
		}
	}
	require.NotNil(t, refresh, "verify sets the refresh cookie")
	require.True(t, refresh.HttpOnly)
	require.NotEmpty(t, refresh.Value)

	// The refresh endpoint rotates the pair from the cookie alone.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookieName, Value: refresh.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(envelope.Data, &tokensPayload))
	require.NotEmpty(t, tokensPayload.AccessToken)
}

func TestAuthHandlerVerifyRejectsWrongCode(t *testing.T) {
	app, mini := setupAuthApp(t, "auth_wrong_code")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login/code", fiber.Map{"email": "jane@example.com", "name": "Jane Doe"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := mini.Get("login:jane@example.com")
	require.NoError(t, err)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login/verify", fiber.Map{"email": "jane@example.com", "code": wrong}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandlerRefreshWithoutCookie(t *testing.T) {
	app, _ := setupAuthApp(t, "auth_no_cookie")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	app, _ := setupAuthApp(t, "auth_logout")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.RefreshCookieName {
			cleared = cookie
		}
	}
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)
}
