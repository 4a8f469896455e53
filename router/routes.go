package router

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	handler "github.com/krishkalaria12/snap-gallery/handlers"
	"github.com/krishkalaria12/snap-gallery/middleware"
)

type Options struct {
	BodyLimit int
	AccessLog bool
	// AuthHandler serves /auth/* when set.
	AuthHandler http.Handler
}

// New builds the fiber app with middleware and routes.
func New(h *handler.Handler, resolver middleware.IdentityResolver, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "snap-gallery",
		BodyLimit:    opts.BodyLimit,
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	// Both must run before routing so that overridden methods and the
	// requester identity are visible to every route.
	app.Use(middleware.MethodOverride())
	app.Use(middleware.Identify(resolver))

	SetupRoutes(app, h, opts.AuthHandler)
	return app
}

func SetupRoutes(app *fiber.App, h *handler.Handler, authHandler http.Handler) {
	login := middleware.RequireLogin()

	app.Get("/health", handler.Hello)

	// Gallery
	app.Get("/", h.PublicGallery)
	app.Get("/gallery", login, h.Gallery)
	app.Get("/gallery/new", login, h.NewImageForm)
	app.Post("/gallery", login, h.CreateImage)
	app.Get("/gallery/:id", h.ShowImage)
	app.Get("/gallery/:id/edit", login, h.EditImageForm)
	app.Put("/gallery/:id", login, h.UpdateImage)
	app.Delete("/gallery/:id", login, h.DeleteImage)
	app.Get("/hidden/:imgId", h.StreamImage)

	// Comments
	comments := app.Group("/gallery/:imageId/comment", login)
	comments.Get("/", h.CommentIndex)
	comments.Get("/new", h.NewCommentForm)
	comments.Post("/", h.CreateComment)
	comments.Get("/:commentId/edit", h.EditCommentForm)
	comments.Put("/:commentId", h.UpdateComment)
	comments.Delete("/:commentId", h.DeleteComment)

	// Auth
	app.Get("/register", handler.RegisterForm)
	app.Post("/register", h.Register)
	app.Get("/login", handler.LoginForm)
	app.Post("/login", h.Login)
	app.Get("/logout", handler.Logout)

	if authHandler != nil {
		app.All("/auth/*", adaptor.HTTPHandler(authHandler))
	}
}
