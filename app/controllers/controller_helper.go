package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwellner/subhub/app/repository"
	"github.com/mwellner/subhub/internal/pkg/billing"
	"github.com/mwellner/subhub/internal/pkg/config"
	"github.com/mwellner/subhub/internal/pkg/token"
	"github.com/mwellner/subhub/internal/pkg/usercontext"
)

// MailSender is the slice of the mailer the controllers send through.
type MailSender interface {
	Welcome(to, name string) error
	ResetPassword(to, resetToken string) error
	ConfirmEmail(to, confirmToken string) error
}

var (
	appConfig      *config.Config
	repos          *repository.Repositories
	billingService *billing.Service
	tokenManager   *token.Manager
	mailSender     MailSender
)

// Setup injects the shared dependencies once at startup.
func Setup(cfg *config.Config, r *repository.Repositories, svc *billing.Service, tokens *token.Manager, mails MailSender) {
	appConfig = cfg
	repos = r
	billingService = svc
	tokenManager = tokens
	mailSender = mails
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func setSessionCookie(c *fiber.Ctx, signed string) {
	c.Cookie(&fiber.Cookie{
		Name:     usercontext.CookieName,
		Value:    signed,
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   int(appConfig.JWT.TokenTTL.Seconds()),
		Path:     "/",
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     usercontext.CookieName,
		Value:    "",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   -1,
		Path:     "/",
	})
}
