package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/frontenddevmichael/openrole-connect/external/localstore"
	"github.com/frontenddevmichael/openrole-connect/internal/authgate"
	"github.com/frontenddevmichael/openrole-connect/internal/config"
	"github.com/frontenddevmichael/openrole-connect/internal/db"
	"github.com/frontenddevmichael/openrole-connect/internal/metrics"
	"github.com/frontenddevmichael/openrole-connect/internal/middleware"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/security"
	"github.com/frontenddevmichael/openrole-connect/internal/services"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.UsingDefaultAdminPair() {
		logger.Warn("default admin credentials are active; set ADMIN_USERNAME/ADMIN_PASSWORD before going public")
	}

	// ======================
	// INFRA
	// ======================
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("migrations failed", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	storage, err := localstore.New(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		logger.Error("upload storage init failed", slog.Any("error", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	sanitizer := security.NewSanitizer()

	// ======================
	// REPOSITORIES
	// ======================
	credRepo := repository.NewCredentialRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	internshipRepo := repository.NewInternshipRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)
	savedRepo := repository.NewSavedInternshipRepository(pool)

	// ======================
	// SESSION CORE
	// ======================
	gateway := authgate.New(credRepo, cfg.JWTSecret, time.Duration(cfg.TokenTTLHrs)*time.Hour)
	profileSource := authgate.NewProfileSource(profileRepo)
	adminPair := session.AdminPair{Username: cfg.AdminUsername, Password: cfg.AdminPassword}
	manager := session.NewManager(gateway, profileSource, adminPair,
		time.Duration(cfg.SessionTTLMn)*time.Minute, logger, collector)
	defer manager.Close()

	// ======================
	// SERVICES
	// ======================
	internshipSvc := services.NewInternshipService(internshipRepo, savedRepo, applicationRepo, sanitizer, collector)
	applicationSvc := services.NewApplicationService(applicationRepo, internshipRepo, sanitizer, collector)
	profileSvc := services.NewProfileService(profileRepo, storage, sanitizer)
	savedSvc := services.NewSavedInternshipService(savedRepo, internshipRepo)
	statsSvc := services.NewStatsService(internshipRepo, profileRepo, applicationRepo, savedRepo)

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.Session(manager, gateway))

	e.Static("/uploads", storage.Root())
	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))

	api := e.Group("/api")
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMin, cfg.AuthRateBurst)
	defer authLimiter.Stop()

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerAuthRoutes(api, manager, gateway, collector, authLimiter)
	registerInternshipRoutes(api, internshipSvc)
	registerStatsRoutes(api, statsSvc)
	registerStudentRoutes(api, profileSvc, savedSvc, applicationSvc, statsSvc)
	registerOrganizationRoutes(api, profileSvc, internshipSvc, applicationSvc, statsSvc)
	registerAdminRoutes(api, internshipSvc, statsSvc)

	// ======================
	// SERVER
	// ======================
	logger.Info("starting server", slog.String("port", cfg.Port))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
