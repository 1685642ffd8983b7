package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/mwellner/subhub/internal/pkg/cache"
	"github.com/mwellner/subhub/internal/pkg/env"
)

var sessionStore *session.Store

// NewSessionStore builds the Redis-backed session store used during OAuth
// handshakes. Sessions live in database 1, the cache uses database 0.
func NewSessionStore() *session.Store {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		if h, p, err := net.SplitHostPort(cacheClient.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		Expiration:     time.Hour,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key-value pair in the caller's session.
func SetSessionValue(c *fiber.Ctx, key, value string) error {
	sess, err := sessionStore.Get(c)
	if err != nil {
		return err
	}
	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a string value from the caller's session, or ""
// when absent.
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}
	if v, ok := sess.Get(key).(string); ok {
		return v
	}
	return ""
}
