package router

import (
	"github.com/anorak42/tiktok-tracker/backend/internal/handlers"
	"github.com/anorak42/tiktok-tracker/backend/internal/middleware"
	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/anorak42/tiktok-tracker/backend/internal/tiktok"
	"github.com/anorak42/tiktok-tracker/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the background scheduler so the caller controls its lifecycle.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, push services.PushSender, logger *zap.Logger) (*services.Scheduler, error) {
	// AutoMigrate PostgreSQL models
	if err := db.Postgres.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}
	logger.Info("PostgreSQL auto-migrations completed")

	// Health check and metrics - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Initialize Repositories ---
	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followingRepo := repositories.NewMongoFollowingRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB, db.Redis)
	engagementRepo := repositories.NewMongoEngagementRepository(mongoDB)

	// --- Initialize Services ---
	notifier := services.NewNotifier(notificationRepo, userRepo, push, logger)
	scanner := services.NewInactivityScanner(followingRepo, logger)
	recommender := services.NewRecommender(followingRepo, notifier, logger)

	unfollowClient := tiktok.NewClient(cfg.TikTokServiceURL, cfg.TikTokTimeout, logger)
	executor := services.NewAutoUnfollowExecutor(
		userRepo,
		followingRepo,
		notifier,
		unfollowClient,
		services.PacingPolicy{Delay: cfg.UnfollowDelay},
		logger,
	)

	syncRunner := tiktok.NewSyncRunner(cfg.PythonBin, cfg.SyncScript, cfg.SyncTimeout, logger)
	schedule := services.Schedule{
		InactiveCheckHour: cfg.InactiveCheckHour,
		AutoUnfollowHour:  cfg.AutoUnfollowHour,
		SyncWeekday:       cfg.SyncWeekday,
		SyncHour:          cfg.SyncHour,
	}
	scheduler := services.NewScheduler(userRepo, scanner, recommender, executor, syncRunner, notifier, schedule, logger)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	userHandler := handlers.NewUserHandler(userRepo, followingRepo, scanner, logger)
	userHandler.RegisterUserRoutes(api)

	followingHandler := handlers.NewFollowingHandler(userRepo, followingRepo, scanner, recommender, notifier, logger)
	followingHandler.RegisterFollowingRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, logger)
	notificationHandler.RegisterNotificationRoutes(api)

	tiktokHandler := handlers.NewTikTokHandler(userRepo, followingRepo, engagementRepo, scheduler, logger)
	tiktokHandler.RegisterTikTokRoutes(api)

	schedulerHandler := handlers.NewSchedulerHandler(scheduler, logger)
	schedulerHandler.RegisterSchedulerRoutes(api)

	autoUnfollowHandler := handlers.NewAutoUnfollowHandler(userRepo, executor, logger)
	autoUnfollowHandler.RegisterAutoUnfollowRoutes(api)

	logger.Info("Routes configured")
	return scheduler, nil
}
