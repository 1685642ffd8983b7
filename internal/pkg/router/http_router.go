package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwellner/subhub/app/controllers"
	"github.com/mwellner/subhub/internal/pkg/middleware"
	"github.com/mwellner/subhub/internal/pkg/oauth"
	"github.com/mwellner/subhub/internal/pkg/session"
	"github.com/mwellner/subhub/internal/pkg/token"
)

type HttpRouter struct {
	tokens *token.Manager
}

func NewHttpRouter(tokens *token.Manager) *HttpRouter {
	return &HttpRouter{tokens: tokens}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session store and oauth providers
	session.NewSessionStore()
	oauth.Setup()

	// resolve the caller on every request before any route runs
	app.Use(middleware.Authenticate(h.tokens))

	// provider login flow
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
}
