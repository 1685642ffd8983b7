package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	ContextKey   = "USER_CONTEXT"
	CookieName   = "access_token"
	BearerPrefix = "Bearer "
)
