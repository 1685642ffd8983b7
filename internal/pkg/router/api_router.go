package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/mwellner/subhub/app/controllers"
	"github.com/mwellner/subhub/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Webhooks are exempt from the limiter: the provider controls the rate
	// and a 429 would trigger pointless redeliveries.
	app.Post("/api/v1/billing/webhook", controllers.HandleBillingWebhook)

	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", controllers.HandleLogout)
	auth.Post("/request-password-reset", controllers.HandleRequestPasswordReset)
	auth.Post("/reset-password", controllers.HandleResetPassword)
	auth.Post("/request-email-confirm", middleware.RequireAuth, controllers.HandleRequestEmailConfirm)
	auth.Post("/confirm-email", controllers.HandleConfirmEmail)

	user := v1.Group("/user", middleware.RequireAuth)
	user.Get("/account", controllers.HandleGetUserAccount)

	billing := v1.Group("/billing")
	billing.Get("/products", controllers.HandleListProducts)
	billing.Post("/create-checkout-session", middleware.RequireAuth, controllers.HandleCreateCheckoutSession)
	billing.Post("/create-customer-portal-session", middleware.RequireAuth, controllers.HandleCreatePortalSession)
}
