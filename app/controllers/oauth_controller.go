package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/entitlements"
)

// HandleOAuthBegin redirects to the provider's consent screen.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in. An
// existing account with the same email is linked rather than duplicated.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "oauth_failed", fmt.Sprintf("OAuth failed: %v", err))
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return jsonError(c, fiber.StatusBadRequest, "oauth_failed", "The provider did not share an email address")
	}

	user, err := repos.User.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not load account")
		}

		// Password-less account; the placeholder is never usable for login.
		placeholder, err := models.RandomToken()
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create account")
		}
		hash, err := models.HashPassword(placeholder)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create account")
		}

		now := time.Now()
		user = &models.User{
			Name:             firstNonEmpty(u.Name, u.NickName, email),
			Email:            email,
			Password:         hash,
			Role:             models.ROLE_USER,
			Status:           models.STATUS_ACTIVE,
			AvatarURL:        u.AvatarURL,
			AuthProvider:     u.Provider,
			EmailConfirmedAt: &now,
		}
		if appConfig.Billing.FreeTierEnabled {
			user.PlanTier = string(entitlements.TierFree)
		}
		if err := repos.User.Create(user); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create account")
		}
		if err := mailSender.Welcome(user.Email, user.Name); err != nil {
			log.Warnf("oauth: welcome mail to %s failed: %v", user.Email, err)
		}
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Warnf("oauth: updating last login for %s failed: %v", user.Email, err)
	}

	signed, err := tokenManager.IssueSession(user.ID, user.Email, user.BillingCustomerID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not issue session")
	}
	setSessionCookie(c, signed)

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session and the app cookie.
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Warnf("oauth logout: %v", err)
	}
	clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
