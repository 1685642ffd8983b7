package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mwellner/subhub/internal/pkg/entitlements"
	"github.com/mwellner/subhub/internal/pkg/usercontext"
)

// HandleGetUserAccount returns account information for the authenticated user.
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	account, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	tier := entitlements.ParseTier(account.PlanTier)
	response := fiber.Map{
		"id":              account.ID,
		"name":            account.Name,
		"email":           account.Email,
		"status":          account.Status,
		"email_confirmed": account.EmailConfirmedAt != nil,
		"created_at":      account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":   formatTimePtr(account.LastLoginAt),
		"billing": fiber.Map{
			"has_billing_profile": account.HasBillingIdentity(),
			"plan_tier":           account.PlanTier,
			"plan_expires_at":     formatTimePtr(account.PlanExpiresAt),
		},
		"limits": fiber.Map{
			"max_projects":            entitlements.MaxProjects(tier),
			"api_requests_per_minute": entitlements.APIRequestsPerMinute(tier),
			"priority_support":        entitlements.CanUsePrioritySupport(tier),
		},
	}

	return c.JSON(response)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
