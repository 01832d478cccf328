// Package main is the entrypoint for the Tourbase API server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/tourbase/tourbase/internal/analytics"
	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/cache"
	"github.com/tourbase/tourbase/internal/config"
	"github.com/tourbase/tourbase/internal/handler"
	"github.com/tourbase/tourbase/internal/mailer"
	"github.com/tourbase/tourbase/internal/metrics"
	"github.com/tourbase/tourbase/internal/middleware"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/payment"
	"github.com/tourbase/tourbase/internal/repository"
	"github.com/tourbase/tourbase/internal/server"
	"github.com/tourbase/tourbase/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Request-path database pool
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	metricsRecorder := metrics.NewInMemory()

	// Credential signing
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)

	// View event pipeline. The batch writer runs on its own
	// database/sql connection, separate from the request-path pool.
	var (
		publisher *analytics.Publisher
		viewStore *analytics.Store
	)
	if cfg.AnalyticsEnabled {
		analyticsDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open analytics database", "error", sanitizeError(err, cfg.DatabaseURL))
			os.Exit(1)
		}
		defer analyticsDB.Close()

		viewStore = analytics.NewStore(analyticsDB)
		publisher = analytics.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
	}

	// Services
	mail := mailer.NewLogMailer(logger)
	authService := service.NewAuthService(repo, mail, issuer, metricsRecorder, logger, cfg.BaseURL, cfg.ResetTicketTTL)
	userService := service.NewUserService(repo)
	tourService := service.NewTourService(repo, cacheClient, publisher, metricsRecorder, logger)
	reviewService := service.NewReviewService(repo, logger)
	checkoutProvider := payment.NewHostedProvider(cfg.CheckoutBaseURL)
	bookingService := service.NewBookingService(repo, checkoutProvider, metricsRecorder)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	authHandler := handler.NewAuthHandler(authService, logger, cookieTTL(cfg))
	userHandler := handler.NewUserHandler(userService, logger)
	tourHandler := handler.NewTourHandler(tourService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	bookingHandler := handler.NewBookingHandler(bookingService, logger)

	var analyticsHandler *handler.AnalyticsHandler
	if viewStore != nil {
		analyticsHandler = handler.NewAnalyticsHandler(viewStore, logger)
	}

	r := setupRouter(routerDeps{
		base:      h,
		health:    healthHandler,
		metrics:   metricsHandler,
		auth:      authHandler,
		user:      userHandler,
		tour:      tourHandler,
		review:    reviewHandler,
		booking:   bookingHandler,
		analytics: analyticsHandler,
		repo:      repo,
		cache:     cacheClient,
		issuer:    issuer,
		cfg:       cfg,
		logger:    logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// The worker drains its in-flight batch on shutdown, after the HTTP
	// server stops accepting requests.
	if cfg.AnalyticsEnabled {
		worker := analytics.NewWorker(cacheClient.Client(), viewStore, logger, analytics.NewConsumerID(), metricsRecorder)
		go func() {
			if err := worker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("analytics worker exited", "error", err)
			}
		}()
		srv.OnShutdown("analytics_worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func cookieTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.CookieTTLDays) * 24 * time.Hour
}

type routerDeps struct {
	base      *handler.Handler
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	auth      *handler.AuthHandler
	user      *handler.UserHandler
	tour      *handler.TourHandler
	review    *handler.ReviewHandler
	booking   *handler.BookingHandler
	analytics *handler.AnalyticsHandler
	repo      *repository.Repository
	cache     *cache.Cache
	issuer    *auth.TokenIssuer
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	cfg := deps.cfg

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowedOrigins = origins
	}
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.base.Root)

	authCfg := middleware.AuthConfig{
		Logger:   deps.logger,
		Users:    deps.repo,
		Verifier: deps.issuer,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      deps.logger,
		Cache:       deps.cache,
		APIEnabled:  cfg.RateLimitAPIEnabled,
		APIPerMin:   cfg.RateLimitAPIPerMin,
		APIBurst:    cfg.RateLimitAPIBurst,
		AuthEnabled: cfg.RateLimitAuthEnabled,
		AuthPerMin:  cfg.RateLimitAuthPerMin,
		AuthBurst:   cfg.RateLimitAuthBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Identify the caller when possible so rate limits follow the
		// user rather than the IP.
		r.Use(middleware.OptionalAuth(authCfg))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Route("/users", func(r chi.Router) {
			// Credential endpoints get the tighter per-IP limiter.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitAuth(rateLimitCfg))
				r.Post("/signup", deps.auth.SignUp)
				r.Post("/login", deps.auth.Login)
				r.Post("/forgot-password", deps.auth.ForgotPassword)
				r.Patch("/reset-password/{token}", deps.auth.ResetPassword)
			})
			r.Get("/logout", deps.auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Protect(authCfg))
				r.Patch("/update-password", deps.auth.UpdatePassword)
				r.Get("/me", deps.user.Me)
				r.Patch("/me", deps.user.UpdateMe)
				r.Delete("/me", deps.user.DeleteMe)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin())
					r.Get("/", deps.user.List)
					r.Get("/{id}", deps.user.Get)
					r.Delete("/{id}", deps.user.Delete)
				})
			})
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", deps.tour.List)
			r.Get("/top-5-cheap", deps.tour.TopCheap)
			r.Get("/stats", deps.tour.Stats)
			r.Get("/slug/{slug}", deps.tour.GetBySlug)
			r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", deps.tour.ToursWithin)
			r.Get("/distances/{latlng}/unit/{unit}", deps.tour.Distances)
			r.Get("/{id}", deps.tour.Get)

			r.With(middleware.Protect(authCfg), middleware.RequirePublisher()).
				Get("/monthly-plan/{year}", deps.tour.MonthlyPlan)

			if deps.analytics != nil {
				r.With(middleware.Protect(authCfg), middleware.RequireAdmin()).
					Get("/{id}/views", deps.analytics.TourViews)
			}

			r.Group(func(r chi.Router) {
				r.Use(middleware.Protect(authCfg), middleware.RequirePublisher())
				r.Post("/", deps.tour.Create)
				r.Patch("/{id}", deps.tour.Update)
				r.Delete("/{id}", deps.tour.Delete)
			})

			// Reviews nest under their tour.
			r.Route("/{tourID}/reviews", func(r chi.Router) {
				r.Get("/", deps.review.ListForTour)
				r.With(middleware.Protect(authCfg), middleware.RequireRole(model.RoleUser)).
					Post("/", deps.review.Create)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{id}", deps.review.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Protect(authCfg))
				r.Patch("/{id}", deps.review.Update)
				r.Delete("/{id}", deps.review.Delete)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(middleware.Protect(authCfg))

			r.Get("/checkout-session/{tourID}", deps.booking.CheckoutSession)
			r.Get("/", deps.booking.List)
			r.Get("/{id}", deps.booking.Get)
			r.Post("/", deps.booking.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Patch("/{id}", deps.booking.Update)
				r.Delete("/{id}", deps.booking.Delete)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
