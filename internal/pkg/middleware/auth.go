package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mwellner/subhub/internal/pkg/token"
	"github.com/mwellner/subhub/internal/pkg/usercontext"
)

// Authenticate resolves the caller's JWT from the access-token cookie or the
// Authorization header and attaches the user context. Requests without a
// valid token continue anonymously; RequireAuth draws the line.
func Authenticate(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(usercontext.CookieName)
		if raw == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, usercontext.BearerPrefix) {
				raw = strings.TrimPrefix(h, usercontext.BearerPrefix)
			}
		}
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.Verify(raw, token.PurposeSession)
		if err != nil {
			// An expired or forged token is the same as no token.
			return c.Next()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:            claims.UserID,
			Email:             claims.Email,
			BillingCustomerID: claims.BillingCustomerID,
			IsLoggedIn:        true,
		})
		return c.Next()
	}
}

// RequireAuth ensures an authenticated caller and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
