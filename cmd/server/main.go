package main

import (
	"context"

	"github.com/anorak42/tiktok-tracker/backend/internal/router"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/anorak42/tiktok-tracker/backend/pkg/config"
	"github.com/anorak42/tiktok-tracker/backend/pkg/firebase"
	"github.com/anorak42/tiktok-tracker/backend/pkg/logger"
	"github.com/anorak42/tiktok-tracker/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Firebase push is optional: without credentials, notifications stay
	// inbox-only.
	var push services.PushSender
	if cfg.FirebaseCredentialsPath != "" {
		fb, err := firebase.Init(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		push = fb
		log.Info("Firebase messaging initialized")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	scheduler, err := router.SetupRoutes(e, cfg, db, push, log)
	if err != nil {
		log.Fatal("Failed to set up routes", zap.Error(err))
	}

	// Background calendar jobs
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Port))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
