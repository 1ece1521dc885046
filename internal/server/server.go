// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "townsquare/docs" // swagger docs
	"townsquare/internal/bootstrap"
	"townsquare/internal/config"
	"townsquare/internal/featureflags"
	"townsquare/internal/middleware"
	"townsquare/internal/models"
	"townsquare/internal/moderation"
	"townsquare/internal/repository"
	"townsquare/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	reportRepo       repository.ReportRepository
	blockedWordRepo  repository.BlockedWordRepository
	savedPostRepo    repository.SavedPostRepository
	blockedUserRepo  repository.BlockedUserRepository
	featureFlags     *featureflags.Manager
	blocklist        moderation.Blocklist
	postService      *service.PostService
	commentService   *service.CommentService
	reportService    *service.ReportService
	analyticsService *service.AnalyticsService
	blocklistService *service.BlocklistService
	userService      *service.UserService
	savedPostService *service.SavedPostService
	blockService     *service.BlockService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server: config and database are required")
	}

	s := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  middleware.InitMetrics("townsquare-api"),
		userRepo:        repository.NewUserRepository(db),
		postRepo:        repository.NewPostRepository(db),
		commentRepo:     repository.NewCommentRepository(db),
		reportRepo:      repository.NewReportRepository(db),
		blockedWordRepo: repository.NewBlockedWordRepository(db),
		savedPostRepo:   repository.NewSavedPostRepository(db),
		blockedUserRepo: repository.NewBlockedUserRepository(db),
		featureFlags:    featureflags.NewManager(cfg.FeatureFlags),
	}

	blocklist, invalidator := newBlocklist(cfg, s.blockedWordRepo, redisClient)
	s.blocklist = blocklist
	gate := moderation.NewGate(blocklist)

	s.postService = service.NewPostService(s.postRepo, gate, s.featureFlags, cfg.FeedDefaultLimit)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.reportService = service.NewReportService(s.reportRepo, s.postRepo, s.commentRepo, s.featureFlags, cfg.ReportAutoHideThreshold)
	s.analyticsService = service.NewAnalyticsService(s.postRepo, s.reportRepo)
	s.blocklistService = service.NewBlocklistService(s.blockedWordRepo, invalidator)
	s.userService = service.NewUserService(s.userRepo)
	s.savedPostService = service.NewSavedPostService(s.postRepo, s.savedPostRepo, s.blockedUserRepo)
	s.blockService = service.NewBlockService(s.userRepo, s.blockedUserRepo)

	return s, nil
}

// PostService exposes the post service so bootstrap code (seeding) goes
// through the same moderation and ranking path as the API.
func (s *Server) PostService() *service.PostService {
	return s.postService
}

// newBlocklist picks the blocklist cache for the configured mode. The
// returned invalidator is nil when nothing is cached.
func newBlocklist(cfg *config.Config, source moderation.BlocklistSource, rdb *redis.Client) (moderation.Blocklist, moderation.Invalidator) {
	ttl := time.Duration(cfg.BlocklistCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = moderation.DefaultTTL
	}

	switch cfg.BlocklistCacheMode {
	case config.BlocklistCacheOff:
		return moderation.SourceBlocklist{Source: source}, nil
	case config.BlocklistCacheRedis:
		if rdb != nil {
			c := moderation.NewRedisCache(rdb, source, ttl)
			return c, c
		}
		slog.Warn("redis unavailable, falling back to in-process blocklist cache")
	}

	c := moderation.NewTTLCache(source, ttl)
	return c, c
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Spans first so the trace ID reaches the logging context
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimitExceeded, Message: "Too many requests, please try again later."})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Townsquare Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public reads; /feed must precede /:id
	publicPosts := api.Group("/posts")
	publicPosts.Get("/feed", s.GetFeed)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)
	api.Get("/users/:id/posts", s.GetUserPosts)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/save", s.SavePost)
	posts.Delete("/:id/save", s.UnsavePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Patch("/:id/hide", s.AdminRequired(), s.HidePost)
	posts.Patch("/:id/restore", s.AdminRequired(), s.RestorePost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	protected.Delete("/comments/:id", s.DeleteComment)

	users := protected.Group("/users")
	users.Get("/me/saved-posts", s.GetSavedPosts)
	users.Get("/me/blocked", s.GetBlockedUsers)
	users.Post("/:id/block", s.BlockUser)
	users.Delete("/:id/block", s.UnblockUser)

	reports := protected.Group("/reports")
	reports.Post("/", middleware.RateLimit(
		s.redis, 20, time.Hour, "create_report"), s.CreateReport)
	reports.Get("/", s.StaffRequired(), s.GetReports)
	reports.Patch("/:id/dismiss", s.AdminRequired(), s.DismissReport)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/analytics/safety", s.GetSafetyAnalytics)
	admin.Get("/blocked-words", s.GetBlockedWords)
	admin.Post("/blocked-words", s.AddBlockedWord)
	admin.Delete("/blocked-words/:id", s.DeleteBlockedWord)
	admin.Put("/users/:id/role", s.SetUserRole)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis only gates
// readiness when the blocklist cache lives there.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}
	redisRequired := s.config.BlocklistCacheMode == config.BlocklistCacheRedis

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || (redisRequired && redisStatus != "healthy") {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The user's role is
// loaded on every request so role changes apply immediately.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		if s.isRevoked(c.UserContext(), claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		user, err := s.userService.GetUserByID(c.UserContext(), claims.UserID)
		if err != nil {
			if isCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return respondError(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("userRole", user.Role)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the role is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return requireRole(models.RoleAdmin)
}

// StaffRequired admits ADMIN and STAFF.
func (s *Server) StaffRequired() fiber.Handler {
	return requireRole(models.RoleAdmin, models.RoleStaff)
}

func requireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("userRole").(string)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Insufficient permissions"))
	}
}

// optionalViewer resolves the caller when a valid token is present. Any
// failure yields an anonymous viewer.
func (s *Server) optionalViewer(c *fiber.Ctx) (uint, string) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, ""
	}
	claims, err := s.parseToken(tokenString)
	if err != nil || s.isRevoked(c.UserContext(), claims.JTI) {
		return 0, ""
	}
	user, err := s.userService.GetUserByID(c.UserContext(), claims.UserID)
	if err != nil {
		return 0, ""
	}
	c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
	return user.ID, user.Role
}

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Townsquare API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
