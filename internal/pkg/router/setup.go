package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwellner/subhub/internal/pkg/token"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires all route groups. The HTTP router goes first so the
// session store and OAuth providers exist before API routes are registered.
func InstallRouter(app *fiber.App, tokens *token.Manager) {
	setup(app, NewHttpRouter(tokens), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
