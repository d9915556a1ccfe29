package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/debtcleaner/debtcleaner-api/internal/service"
	"github.com/debtcleaner/debtcleaner-api/internal/utils"
)

// AccessTokenHeader carries a freshly minted access token back to the client
// after a transparent refresh so it can update its in-memory copy.
const AccessTokenHeader = "X-Access-Token"

// RefreshCookieName is the HTTP-only cookie holding the refresh token.
const RefreshCookieName = "refresh_token"

// CookieConfig controls the refresh-token cookie attributes. The cookie is
// path-scoped to the refresh endpoint so it never travels on regular calls.
type CookieConfig struct {
	Path   string
	Secure bool
	MaxAge time.Duration
}

// NewRefreshCookie builds the rotated refresh-token cookie.
func NewRefreshCookie(cfg CookieConfig, token string) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.Secure {
		sameSite = fiber.CookieSameSiteNoneMode
	}

	return &fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     cfg.Path,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
	}
}

// ClearRefreshCookie builds an expired cookie that removes the refresh token.
func ClearRefreshCookie(cfg CookieConfig) *fiber.Cookie {
	cookie := NewRefreshCookie(cfg, "")
	cookie.MaxAge = -1
	return cookie
}

// Authenticate validates the bearer access token and binds its claims to the
// request. When the access token is expired but a valid refresh cookie is
// present, a new pair is minted inline: the access token is surfaced via the
// AccessTokenHeader and the cookie is rotated. The refresh attempt happens at
// most once; failure yields 401.
func Authenticate(tokens service.TokenService, auth service.AuthService, cookies CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := tokens.Verify(tokenString, service.TokenKindAccess)
		if err == nil {
			bindClaims(c, claims)
			return c.Next()
		}

		refreshToken := c.Cookies(RefreshCookieName)
		if refreshToken == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		pair, err := auth.Refresh(c.Context(), refreshToken)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "session expired")
		}

		claims, err = tokens.Verify(pair.AccessToken, service.TokenKindAccess)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "session expired")
		}

		bindClaims(c, claims)
		c.Set(AccessTokenHeader, pair.AccessToken)
		c.Cookie(NewRefreshCookie(cookies, pair.RefreshToken))

		return c.Next()
	}
}

func bindClaims(c *fiber.Ctx, claims service.TokenClaims) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", strings.ToLower(claims.Role))
}

// UserID returns the authenticated user's id bound by Authenticate.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// UserRole returns the authenticated user's role bound by Authenticate.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}
