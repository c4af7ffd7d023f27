package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/audit"
	"github.com/hindsightlog/hindsight/pkg/auth"
	"github.com/hindsightlog/hindsight/pkg/config"
	"github.com/hindsightlog/hindsight/pkg/database"
	"github.com/hindsightlog/hindsight/pkg/handlers"
	"github.com/hindsightlog/hindsight/pkg/logging"
	"github.com/hindsightlog/hindsight/pkg/middleware"
	"github.com/hindsightlog/hindsight/pkg/repositories"
	"github.com/hindsightlog/hindsight/pkg/retry"
	"github.com/hindsightlog/hindsight/pkg/services"
	"github.com/hindsightlog/hindsight/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.Bool("redis", cfg.Redis.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// localhost inside a container means the host machine.
	cfg.Database.Host = config.ResolveHostForDocker(cfg.Database.Host)
	if cfg.Redis.Enabled() {
		cfg.Redis.Host = config.ResolveHostForDocker(cfg.Redis.Host)
	}

	// The database may still be starting alongside us (compose, CI).
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &cfg.Database)
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations",
			zap.String("error", logging.SanitizeError(err)))
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		// The cache is an optimization; start without it.
		logger.Warn("Redis unavailable, filter metadata cache disabled",
			zap.String("error", logging.SanitizeError(err)))
		redisClient = nil
	}

	// Wire repositories, services, and handlers.
	decisionRepo := repositories.NewDecisionRepository(db)
	metadataCache := services.NewMetadataCache(redisClient,
		time.Duration(cfg.Redis.MetadataTTLSeconds)*time.Second, logger)
	securityAuditor := audit.NewSecurityAuditor(logger)

	decisionService := services.NewDecisionService(decisionRepo, metadataCache, logger)
	searchService := services.NewSearchService(decisionRepo, metadataCache, securityAuditor, logger)

	requireAuth := func(h http.HandlerFunc) http.HandlerFunc { return h }
	var jwksClient *auth.JWKSClient
	if cfg.Auth.Enabled {
		jwksClient, err = auth.NewJWKSClient(&auth.JWKSConfig{
			EnableVerification: cfg.Auth.EnableVerification,
			JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		})
		if err != nil {
			logger.Fatal("Failed to create JWKS client", zap.Error(err))
		}
		defer jwksClient.Close()

		authService := auth.NewAuthService(jwksClient, logger)
		authMiddleware := auth.NewMiddleware(authService, securityAuditor, logger)
		requireAuth = authMiddleware.RequireAuth
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, db, logger)
	healthHandler.RegisterRoutes(mux)

	decisionsHandler := handlers.NewDecisionsHandler(decisionService, searchService, logger)
	decisionsHandler.RegisterRoutes(mux, requireAuth)

	if cfg.AuthServerURL != "" {
		cookieSettings := auth.DeriveCookieSettings(cfg.BaseURL, cfg.CookieDomain)
		auth.InitSessionStore(cfg.SessionSecret, cookieSettings.Secure)

		oauthClient := auth.NewOAuthClient(cfg.AuthServerURL, cfg.OAuth.ClientID, cfg.OAuth.Scopes)
		authHandler := handlers.NewAuthHandler(oauthClient, cfg, logger)
		authHandler.RegisterRoutes(mux, requireAuth)
	}

	staticHandler := handlers.NewStaticHandler(ui.DistFS(), logger)
	staticHandler.RegisterRoutes(mux)

	handler := middleware.Recovery(logger)(
		middleware.RequestLogger(logger)(
			middleware.CORS(cfg.CORSOrigin)(mux)))

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting hindsight",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))

		var serveErr error
		if cfg.TLSCertPath != "" {
			serveErr = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(serveErr))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// runMigrations applies pending migrations through database/sql, which
// golang-migrate requires.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}
