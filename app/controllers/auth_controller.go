package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/entitlements"
	"github.com/mwellner/subhub/internal/pkg/token"
	"github.com/mwellner/subhub/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a password-backed account and logs it in.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if len(req.Password) < 8 {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "Password must be at least 8 characters")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := models.CreateUser(strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "Invalid name or email address")
	}
	if appConfig.Billing.FreeTierEnabled {
		user.PlanTier = string(entitlements.TierFree)
	}

	if _, err := repos.User.GetByEmail(email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	}
	if err := repos.User.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
		}
		log.Errorf("register: creating account for %s failed: %v", email, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create account")
	}

	if err := mailSender.Welcome(user.Email, user.Name); err != nil {
		log.Warnf("register: welcome mail to %s failed: %v", user.Email, err)
	}
	if confirmToken, err := tokenManager.IssueAction(user.ID, user.Email, token.PurposeConfirmEmail); err == nil {
		if err := mailSender.ConfirmEmail(user.Email, confirmToken); err != nil {
			log.Warnf("register: confirmation mail to %s failed: %v", user.Email, err)
		}
	}

	signed, err := tokenManager.IssueSession(user.ID, user.Email, user.BillingCustomerID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not issue session")
	}
	setSessionCookie(c, signed)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":         user,
		"access_token": signed,
	})
}

// HandleLogin verifies credentials and issues a session token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	user, err := repos.User.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		// Same response for unknown email and wrong password.
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "account_disabled", "This account is disabled")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Warnf("login: updating last login for %s failed: %v", user.Email, err)
	}

	signed, err := tokenManager.IssueSession(user.ID, user.Email, user.BillingCustomerID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not issue session")
	}
	setSessionCookie(c, signed)

	return c.JSON(fiber.Map{
		"user":         user,
		"access_token": signed,
	})
}

// HandleLogout clears the session cookie.
func HandleLogout(c *fiber.Ctx) error {
	clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleRequestPasswordReset sends a reset link when the account exists. The
// response never reveals whether it does.
func HandleRequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if user, err := repos.User.GetByEmail(req.Email); err == nil {
		if resetToken, err := tokenManager.IssueAction(user.ID, user.Email, token.PurposeResetPass); err == nil {
			if err := mailSender.ResetPassword(user.Email, resetToken); err != nil {
				log.Warnf("password reset mail to %s failed: %v", user.Email, err)
			}
		}
	}

	return c.JSON(fiber.Map{"message": "If the account exists, a reset email has been sent"})
}

// HandleResetPassword sets a new password from a reset token.
func HandleResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if len(req.Password) < 8 {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "Password must be at least 8 characters")
	}

	claims, err := tokenManager.Verify(req.Token, token.PurposeResetPass)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "The reset link is invalid or expired")
	}

	user, err := repos.User.GetByID(claims.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "The reset link is invalid or expired")
	}
	if err := user.SetPassword(req.Password); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not update password")
	}
	if err := repos.User.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not update password")
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// HandleRequestEmailConfirm re-sends the confirmation mail to the caller.
func HandleRequestEmailConfirm(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	confirmToken, err := tokenManager.IssueAction(userCtx.UserID, userCtx.Email, token.PurposeConfirmEmail)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not issue confirmation token")
	}
	if err := mailSender.ConfirmEmail(userCtx.Email, confirmToken); err != nil {
		log.Warnf("confirmation mail to %s failed: %v", userCtx.Email, err)
	}
	return c.JSON(fiber.Map{"message": "Confirmation email sent"})
}

// HandleConfirmEmail marks the account's email as confirmed.
func HandleConfirmEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	claims, err := tokenManager.Verify(req.Token, token.PurposeConfirmEmail)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "The confirmation link is invalid or expired")
	}

	user, err := repos.User.GetByID(claims.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "The confirmation link is invalid or expired")
	}
	if user.EmailConfirmedAt == nil {
		now := time.Now()
		user.EmailConfirmedAt = &now
		if err := repos.User.Update(user); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not confirm email")
		}
	}

	return c.JSON(fiber.Map{"message": "Email confirmed"})
}
