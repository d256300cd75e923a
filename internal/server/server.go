// Package server contains the HTTP and WebSocket handlers of the FoodShare API.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/bootstrap"
	"foodshare/internal/config"
	"foodshare/internal/featureflags"
	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/repository"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "foodshare_session"

const imageRoutePrefix = "/api/uploads/images"

// Server holds the HTTP application and its dependencies.
type Server struct {
	config       *config.Config
	store        *repository.Store
	redis        *redis.Client
	tokens       *auth.TokenManager
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	limiter      *middleware.RateLimiter

	users        *service.UserService
	listings     *service.ListingService
	messages     *service.MessageService
	transactions *service.TransactionService
	reviews      *service.ReviewService
	images       *service.ImageService

	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// NewServer builds the services on top of an initialized runtime.
func NewServer(rt *bootstrap.Runtime) *Server {
	store := rt.Store
	var notifier service.Notifier
	if rt.Notifier != nil {
		notifier = rt.Notifier
	}

	return &Server{
		config:       rt.Config,
		store:        store,
		redis:        rt.Redis,
		tokens:       rt.Tokens,
		featureFlags: rt.Flags,
		notifier:     rt.Notifier,
		hub:          rt.Hub,
		limiter:      middleware.NewRateLimiter(rt.Redis, middleware.RateLimitEnabled(rt.Config.Env)),

		users:        service.NewUserService(store.Users),
		listings:     service.NewListingService(store.Listings),
		messages:     service.NewMessageService(store.Messages, store.Users, notifier),
		transactions: service.NewTransactionService(store.Transactions, store.Listings, notifier),
		reviews:      service.NewReviewService(store.Reviews, store.Users, store.Listings),
		images:       service.NewImageService(rt.Objects, rt.Config.UploadMaxMB, imageRoutePrefix),
	}
}

// App builds the fiber application with middleware and routes. It is
// built once; later calls return the same app.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "FoodShare API",
		BodyLimit:    int(s.images.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors that escape handlers. Fiber's own errors
// (unknown route, oversized body) keep their status.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
	return models.RespondWithError(c, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics, also mounts /metrics
	app.Use(middleware.Metrics(app))

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
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
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	health := app.Group("/health")
	health.Get("/live", s.LivenessCheck)
	health.Get("/ready", s.ReadinessCheck)

	api := app.Group("/api")
	api.Get("/feature-flags", s.OptionalAuth(), s.GetFeatureFlags)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.limiter.Middleware(middleware.RegisterRule), s.Register)
	authGroup.Post("/login", s.limiter.Middleware(middleware.LoginRule), s.Login)
	authGroup.Post("/logout", s.AuthRequired(), s.Logout)
	authGroup.Get("/me", s.AuthRequired(), s.Me)

	// Public reads
	api.Get("/food-listings", s.ListFoodListings)
	api.Get("/food-listings/:id", s.GetFoodListing)
	api.Get("/food-listings/:listingId/reviews", s.GetListingReviews)
	api.Get("/users/:userId/food-listings", s.GetUserFoodListings)
	api.Get("/users/:userId/reviews", s.GetUserReviews)
	api.Get("/users/:id", s.GetUser)
	api.Get("/uploads/images/:key", s.ServeImage)

	// Session required. AuthRequired is attached per route so unmatched /api
	// paths still fall through to 404.
	authed := s.AuthRequired()

	api.Post("/food-listings", authed, s.CreateFoodListing)
	api.Put("/food-listings/:id", authed, s.UpdateFoodListing)
	api.Delete("/food-listings/:id", authed, s.DeleteFoodListing)

	api.Get("/messages", authed, s.GetMessages)
	api.Get("/messages/:userId", authed, s.GetConversation)
	api.Post("/messages", authed, s.limiter.Middleware(middleware.MessageRule), s.SendMessage)
	api.Put("/messages/:id/read", authed, s.MarkMessageRead)

	api.Get("/transactions", authed, s.GetTransactions)
	api.Get("/transactions/:id", authed, s.GetTransaction)
	api.Post("/transactions", authed, s.CreateTransaction)
	api.Put("/transactions/:id", authed, s.UpdateTransaction)

	api.Post("/reviews", authed, s.CreateReview)

	api.Put("/users/profile", authed, s.UpdateProfile)

	api.Post("/uploads/images", authed,
		s.FeatureRequired(featureflags.Uploads),
		s.limiter.Middleware(middleware.UploadRule),
		s.UploadImage)

	api.Get("/ws", authed, s.FeatureRequired(featureflags.Realtime), s.WebSocketNotifications())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only an unreachable configured client fails readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// AuthRequired returns the authentication middleware. The session token is
// read from the Authorization header or the session cookie; WebSocket
// upgrades may also pass it as ?token=.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := s.tokenFromRequest(c)
		if tokenString == "" {
			return models.RespondWithError(c, models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.Parse(c.UserContext(), tokenString)
		switch {
		case errors.Is(err, auth.ErrRevokedToken):
			return models.RespondWithError(c, models.NewUnauthorizedError("Token has been revoked"))
		case err != nil:
			return models.RespondWithError(c, models.NewUnauthorizedError("Invalid or expired token"))
		}

		userID, err := claims.UserID()
		if err != nil {
			return models.RespondWithError(c, models.NewUnauthorizedError("Invalid user ID in token"))
		}

		setCaller(c, userID, claims)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid session is present and lets
// anonymous requests through.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := s.tokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}
		claims, err := s.tokens.Parse(c.UserContext(), tokenString)
		if err != nil {
			return c.Next()
		}
		if userID, err := claims.UserID(); err == nil {
			setCaller(c, userID, claims)
		}
		return c.Next()
	}
}

// FeatureRequired hides a route (404) while the flag is off for the caller.
func (s *Server) FeatureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)
		if !s.featureFlags.Enabled(flag, userID) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "Feature not available",
				Code:  models.CodeNotFound,
			})
		}
		return c.Next()
	}
}

func (s *Server) tokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie
	}
	if strings.HasPrefix(c.Path(), "/api/ws") {
		return c.Query("token")
	}
	return ""
}

func setCaller(c *fiber.Ctx, userID uint, claims *auth.Claims) {
	c.Locals("userID", userID)
	c.Locals("claims", claims)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

// Start wires the notification hub and starts listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server and closes WebSocket clients.
// Releasing the store and redis is left to the runtime owner.
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Warn("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
