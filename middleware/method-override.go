package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const methodOverrideHeader = "X-HTTP-Method-Override"

var overridable = map[string]bool{
	fiber.MethodPut:    true,
	fiber.MethodPatch:  true,
	fiber.MethodDelete: true,
}

// MethodOverride lets HTML forms reach PUT and DELETE routes through a POST
// carrying a _method field, query parameter or override header. It must be
// registered with app.Use before any route.
func MethodOverride() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		method := c.Get(methodOverrideHeader)
		if method == "" {
			method = c.Query("_method")
		}
		if method == "" {
			method = c.FormValue("_method")
		}

		method = strings.ToUpper(strings.TrimSpace(method))
		if overridable[method] {
			c.Method(method)
		}
		return c.Next()
	}
}
