package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/models"
)

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func credentialsForm(action string) fiber.Map {
	return fiber.Map{
		"action": action,
		"method": fiber.MethodPost,
		"fields": []string{"username", "password"},
	}
}

func RegisterForm(c *fiber.Ctx) error {
	return success(c, "Register", credentialsForm("/register"))
}

func LoginForm(c *fiber.Ctx) error {
	return success(c, "Login", credentialsForm(middleware.LoginPath))
}

// Register creates the user and logs them in. Rejected registrations go
// back to the form.
func (h *Handler) Register(c *fiber.Ctx) error {
	input := new(credentials)
	if err := c.BodyParser(input); err != nil {
		return c.Redirect("/register")
	}

	user, err := h.sessions.Register(c.UserContext(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) || errors.Is(err, auth.ErrInvalidInput) {
			log.Debugf("registration rejected for %q: %v", input.Username, err)
			return c.Redirect("/register")
		}
		log.Errorw("register", "username", input.Username, "error", err)
		return failure(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	log.Infow("user registered", "id", user.ID, "username", user.Username)
	return h.startSession(c, user)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	input := new(credentials)
	if err := c.BodyParser(input); err != nil {
		return c.Redirect(middleware.LoginPath)
	}

	user, err := h.sessions.Verify(c.UserContext(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.Redirect(middleware.LoginPath)
		}
		log.Errorw("login", "username", input.Username, "error", err)
		return failure(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	return h.startSession(c, user)
}

func (h *Handler) startSession(c *fiber.Ctx, user *models.User) error {
	tokenStr, err := h.sessions.IssueToken(user)
	if err != nil {
		log.Errorw("issue token", "user", user.ID, "error", err)
		return failure(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    tokenStr,
		Expires:  time.Now().Add(h.sessions.CookieDuration()),
		HTTPOnly: true,
		Secure:   h.sessions.SecureCookies(),
		SameSite: "Lax",
	})
	return c.Redirect("/gallery")
}

func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.Redirect("/")
}
