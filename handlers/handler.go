package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/authz"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
)

// Store is the persistence the handlers need.
type Store interface {
	store.ImageStore
	store.CommentStore
	store.UserStore
}

// Sessions is the identity store and token issuer used by the auth routes.
type Sessions interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Verify(ctx context.Context, username, password string) (*models.User, error)
	IssueToken(user *models.User) (string, error)
	CookieDuration() time.Duration
	SecureCookies() bool
}

type Handler struct {
	store    Store
	sessions Sessions
	policy   authz.Policy
}

func New(st Store, sessions Sessions, policy authz.Policy) *Handler {
	return &Handler{store: st, sessions: sessions, policy: policy}
}

func Hello(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "message": "ok", "data": nil})
}

func success(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

// deny turns a policy denial into a response. Anonymous requesters are sent
// to the login page instead of receiving an error.
func deny(c *fiber.Ctx, d authz.Decision) error {
	switch d.Reason {
	case authz.ReasonUnauthenticated, authz.ReasonPrivate:
		return c.Redirect(middleware.LoginPath)
	case authz.ReasonMissing:
		return failure(c, fiber.StatusNotFound, "Not found")
	default:
		return failure(c, fiber.StatusForbidden, "You are not allowed to change this resource")
	}
}

// storeFailure reports a store error. Missing records are 404; everything
// else is logged and surfaced as an opaque 500.
func storeFailure(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return failure(c, fiber.StatusNotFound, what+" not found")
	}
	log.Errorw("store failure", "method", c.Method(), "path", c.Path(), "error", err)
	return failure(c, fiber.StatusInternalServerError, "Something went wrong")
}

// ErrorHandler renders errors that escape the handlers in the JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return failure(c, code, message)
}
