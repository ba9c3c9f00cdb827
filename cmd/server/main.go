package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agency_site_go/config"
	"agency_site_go/db"
	"agency_site_go/handlers"
	"agency_site_go/logging"
	"agency_site_go/middleware"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/i18n"
	"agency_site_go/services/jobs"
	"agency_site_go/services/site"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	if cfg.TursoDatabaseURL != "" {
		err = db.InitializeRemote(cfg.TursoDatabaseURL, cfg.TursoAuthToken, cfg.Environment)
	} else {
		err = db.Initialize(cfg.DBPath, cfg.Environment)
	}
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := i18n.Load(); err != nil {
		logger.Fatal("failed to load translations", zap.Error(err))
	}

	builder, err := site.FromConfig(cfg)
	if err != nil {
		logger.Fatal("failed to build site", zap.Error(err))
	}
	handlers.Configure(builder, "")
	router := builder.Router()

	middleware.InitAssetVersions(cfg.PublicDir)
	services.InitializeStorage(cfg)

	loginLimiter := middleware.NewLoginRateLimiter()
	defer loginLimiter.Stop()
	formLimiter := middleware.NewFormRateLimiter()
	defer formLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e)

	// Middleware
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         hstsMaxAge(cfg),
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(echomiddleware.Gzip())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))
	e.Use(middleware.WithConfig(cfg))
	e.Use(middleware.CSPNonce())
	e.Use(middleware.Locale(cfg, router))
	e.Use(middleware.CSRF(cfg))

	// Static files
	e.Static("/static", cfg.PublicDir)

	// SEO and health
	e.GET("/robots.txt", handlers.RobotsHandler)
	e.GET("/sitemap.xml", handlers.SitemapIndexHandler)
	e.GET("/sitemap-index.xml", handlers.SitemapIndexHandler)
	for _, l := range router.Locales() {
		e.GET("/sitemap-"+string(l)+".xml", handlers.SitemapHandler(l))
	}
	e.GET("/healthz", handlers.HealthHandler)

	// Lead forms. Prerendered pages carry no CSRF token, so these check
	// the origin instead.
	forms := e.Group("/forms", middleware.SameOrigin(append([]string{cfg.SiteBaseURL}, cfg.AllowedOrigins...)...), formLimiter.Middleware())
	{
		forms.POST("/contact", handlers.ContactFormHandler)
		forms.POST("/consultation", handlers.ConsultationFormHandler)
		forms.POST("/service-inquiry", handlers.InquiryFormHandler)
	}

	// Admin sign-in (no authentication required)
	e.GET(middleware.LoginPath, handlers.AdminLoginHandler)
	e.POST(middleware.LoginPath, handlers.AdminLoginPostHandler, loginLimiter.Middleware())

	// Admin dashboard (authentication required)
	admin := e.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.AuditContext())
	{
		admin.GET("", handlers.AdminDashboardHandler)
		admin.POST("/logout", handlers.AdminLogoutHandler)
		admin.GET("/leads/:kind", handlers.LeadListHandler)
		admin.GET("/leads/:kind/export", handlers.LeadExportHandler)
		admin.GET("/leads/:kind/:id", handlers.LeadDetailHandler)
		admin.GET("/leads/:kind/:id/pdf", handlers.LeadPDFHandler)
		admin.GET("/leads/:kind/:id/attachment", handlers.LeadAttachmentHandler)
		admin.POST("/leads/:kind/:id/status", handlers.LeadStatusHandler)
		admin.POST("/leads/:kind/:id/delete", handlers.LeadDeleteHandler)
	}

	// Public pages: every localized path, then a catch-all that renders
	// the localized 404 for anything the router does not know.
	for _, path := range router.EnumerateStaticPaths() {
		e.GET(path, handlers.PageHandler)
	}
	e.GET("/*", handlers.PageHandler)

	// Background jobs
	scheduler, err := jobs.StartScheduler(db.DB, cfg)
	if err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server
	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	<-scheduler.Stop().Done()
}

func hstsMaxAge(cfg *config.Config) int {
	if cfg.IsProduction() {
		return 31536000
	}
	return 0
}
