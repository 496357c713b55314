// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"projectarium/internal/config"
	"projectarium/internal/featureflags"
	"projectarium/internal/middleware"
	"projectarium/internal/models"
	"projectarium/internal/notifications"
	"projectarium/internal/repository"
	"projectarium/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store        *repository.Store
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	graph    *service.GraphService
	users    *service.UserService
	projects *service.ProjectService
	comments *service.CommentService
	chats    *service.ChatService
	cascade  *service.CascadeService
	reports  *service.ReportService
	bot      *service.WelcomeBot
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case notifications are not delivered.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store := repository.NewStore(db)
	notifier := notifications.NewNotifier(redisClient)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	graph := service.NewGraphService(store, notifier)
	bot := service.NewWelcomeBot(store, graph, notifier, cfg.BotUsername)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("projectarium-api"),
		store:          store,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		featureFlags:   flags,
		graph:          graph,
		users:          service.NewUserService(store, graph, flags, bot),
		projects:       service.NewProjectService(store, graph),
		comments:       service.NewCommentService(store, notifier),
		chats:          service.NewChatService(store, notifier),
		cascade:        service.NewCascadeService(store),
		reports:        service.NewReportService(store),
		bot:            bot,
	}, nil
}

// Bot returns the welcome bot so bootstrap can provision its account.
func (s *Server) Bot() *service.WelcomeBot {
	return s.bot
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagate request ID and trace ID into the request context for the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := strings.Join(s.config.Origins(), ",")
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

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
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public reads. Specific paths are registered before the generic
	// /:username style routes they would otherwise collide with.
	publicUsers := api.Group("/users")
	publicUsers.Get("/details/:id", s.GetUserDetails)
	publicUsers.Get("/:id/followers", s.GetFollowers)
	publicUsers.Get("/:id/following/:otherId", s.IsFollowing)
	publicUsers.Get("/:id/following", s.GetFollowing)
	publicUsers.Get("/:username", s.GetUserProfile)

	publicProjects := api.Group("/projects")
	publicProjects.Get("/random", s.GetRandomProjects)
	publicProjects.Get("/popular", s.GetPopularProjects)
	publicProjects.Get("/sponsored", s.GetSponsoredProjects)
	publicProjects.Get("/search", middleware.RateLimit(s.redis, 20, time.Minute, "search"), s.SearchProjects)
	publicProjects.Get("/user/:username", s.GetUserProjects)
	publicProjects.Get("/:id/comments", s.GetComments)
	publicProjects.Get("/:id/liked", middleware.AuthRequired, s.IsProjectLiked)
	publicProjects.Get("/:username/:name", s.GetProjectByOwner)
	publicProjects.Get("/:id", s.GetProject)

	api.Get("/ws", middleware.WebSocketAuthRequired, s.WebsocketHandler())

	// Everything registered below requires a bearer token.
	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Put("/me/password", s.ChangePassword)
	users.Put("/me/display-name", s.EditDisplayName)
	users.Put("/me/description", s.EditDescription)
	users.Put("/me/username", s.EditUsername)
	users.Post("/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)
	users.Post("/:id/credits", s.AddCredits)
	users.Delete("/:id", s.DeleteUser)

	projects := protected.Group("/projects")
	projects.Post("/", middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_project"), s.CreateProject)
	projects.Post("/:id/sponsor", s.SponsorProject)
	projects.Post("/:id/like", s.LikeProject)
	projects.Delete("/:id/like", s.UnlikeProject)
	projects.Post("/:id/comments", middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	projects.Put("/:id", s.UpdateProject)
	projects.Delete("/:id", s.DeleteProject)

	comments := protected.Group("/comments")
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id/like", s.UnlikeComment)
	comments.Delete("/:id", s.DeleteComment)

	chats := protected.Group("/chats")
	chats.Get("/", s.GetThreads)
	chats.Post("/open/:userId", s.OpenChannel)
	chats.Post("/:id/messages", middleware.RateLimit(s.redis, 30, time.Minute, "send_chat"), s.SendMessage)
	chats.Post("/:id/read", s.MarkThreadRead)
	chats.Get("/:id", s.GetThread)

	reports := protected.Group("/reports", middleware.RateLimit(s.redis, 10, time.Hour, "report"))
	reports.Post("/users/:id", s.ReportUser)
	reports.Post("/projects/:id", s.ReportProject)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/reports", s.GetPendingReports)
	admin.Post("/reports/:kind/:id/resolve", s.ResolveReport)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
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

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return models.Respond(c, models.NewUnauthorizedError("Authentication required"))
		}
		user, err := s.store.Users.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.IsNotFound(err) {
				return models.Respond(c, models.NewUnauthorizedError("Authentication required"))
			}
			return models.Respond(c, err)
		}
		if !user.IsAdmin() {
			return models.Respond(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// GetFeatureFlags returns the flags as evaluated for the calling admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Projectarium API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the notification subscriber and serves HTTP until shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.redis != nil {
		if err := s.notifier.StartPatternSubscriber(s.shutdownCtx, s.hub.Deliver); err != nil {
			middleware.Logger.Warn("notification subscriber not started", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
