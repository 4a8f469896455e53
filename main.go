package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/authz"
	"github.com/krishkalaria12/snap-gallery/config"
	"github.com/krishkalaria12/snap-gallery/database"
	handler "github.com/krishkalaria12/snap-gallery/handlers"
	"github.com/krishkalaria12/snap-gallery/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())

	ctx := context.Background()
	st, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DBDriver, err)
	}

	// close the database connection
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Errorf("Error closing the database connection: %v", err)
		}
	}()

	sessions := auth.NewService(st, auth.Options{
		Secret:         cfg.JWTSecret,
		TokenDuration:  cfg.TokenDuration,
		CookieDuration: cfg.CookieDuration,
		SecureCookies:  cfg.SecureCookies,
		URL:            cfg.AppURL,
		AvatarDir:      cfg.AvatarDir,
	})

	policy := authz.Policy{
		EnforceOwnership: cfg.StrictOwnership,
		GateDirectReads:  cfg.GateDirectReads,
	}
	if !policy.EnforceOwnership {
		log.Warn("STRICT_OWNERSHIP is off: any logged-in user may edit or delete any image or comment")
	}

	app := router.New(handler.New(st, sessions, policy), sessions, router.Options{
		BodyLimit:   cfg.UploadBodyLimit,
		AccessLog:   true,
		AuthHandler: sessions.Handlers(),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("Shutdown: %v", err)
		}
	}()

	log.Infof("Server is listening at the port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Errorf("Server stopped: %v", err)
	}
}
