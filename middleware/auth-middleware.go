package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/authz"
)

const (
	CookieName  = "JWT"
	LoginPath   = "/login"
	identityKey = "identity"
)

// IdentityResolver turns a session token into the requester identity.
type IdentityResolver interface {
	ResolveIdentity(token string) (authz.Identity, error)
}

// Identify resolves the session on every request. Missing or invalid tokens
// leave the request anonymous.
func Identify(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := authz.Anonymous()

		if tokenStr := sessionToken(c); tokenStr != "" {
			resolved, err := resolver.ResolveIdentity(tokenStr)
			if err != nil {
				log.Debugf("ignoring invalid session token: %v", err)
			} else {
				id = resolved
			}
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") && len(authHeader) > 7 {
		return authHeader[7:]
	}
	return c.Cookies(CookieName)
}

// CurrentIdentity returns the identity stored by Identify.
func CurrentIdentity(c *fiber.Ctx) authz.Identity {
	id, ok := c.Locals(identityKey).(authz.Identity)
	if !ok {
		return authz.Anonymous()
	}
	return id
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentIdentity(c).Authenticated() {
			return c.Redirect(LoginPath)
		}
		return c.Next()
	}
}
