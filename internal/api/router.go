package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/natours/tour-booking-api/internal/api/handler"
	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/service"
	mongodb "github.com/natours/tour-booking-api/internal/infrastructure/db/mongo"
	redisdb "github.com/natours/tour-booking-api/internal/infrastructure/db/redis"
	"github.com/natours/tour-booking-api/internal/infrastructure/email"
	"github.com/natours/tour-booking-api/internal/infrastructure/payment"
	"github.com/natours/tour-booking-api/internal/pkg/config"
)

// Fields a client may legitimately pass more than once; all other duplicated
// parameters collapse to their last value.
var paramWhitelist = []string{
	"duration", "maxGroupSize", "difficulty", "ratingsAverage",
	"ratingsQuantity", "price",
}

// contentSecurityPolicy mirrors the directives served with every response.
const contentSecurityPolicy = "default-src 'self' data: blob:; " +
	"font-src 'self' https: data:; " +
	"script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' https: 'unsafe-inline'; " +
	"connect-src 'self' data: https:; " +
	"frame-src 'self' https://*.stripe.com"

// NewRouter builds the Echo instance: the ordered middleware pipeline, all
// resource routes, and the centralized error handler.
//
// Pipeline order is a correctness requirement: the static short-circuit
// precedes security and rate-limit work, rate limiting precedes body
// parsing, and sanitization runs after the body limit but before any handler
// binds the body.
func NewRouter(cfg *config.Config, log zerolog.Logger, db *mongo.Database, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.IsProduction())

	webhookPath := "/api/v1/bookings" + handler.WebhookPath

	// --- Ambient middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("natours"))

	// --- Ordered request pipeline ---
	// 1. Cross-origin access policy.
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	// 2. Static-asset short-circuit.
	e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
		Root: cfg.StaticDir,
	}))

	// 3. Security headers.
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		ContentSecurityPolicy: contentSecurityPolicy,
	}))

	// 4. Rate limiting, API paths only.
	e.Use(middleware.RateLimit(
		redisdb.NewRateLimitStore(rdb, cfg.Limit.Max, cfg.Limit.Window),
		cfg.Limit.Message,
	))

	// 5. Body size limit.
	e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))

	// 6. Input sanitization and parameter-pollution collapse. The payment
	// webhook keeps its raw body for signature verification.
	e.Use(middleware.Sanitize(func(c echo.Context) bool {
		return c.Request().URL.Path == webhookPath
	}))
	e.Use(middleware.CollapseDuplicateParams(paramWhitelist...))

	// 7. Response compression.
	e.Use(echomiddleware.Gzip())

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	tourRepo := mongodb.NewTourRepository(db)
	reviewRepo := mongodb.NewReviewRepository(db)
	bookingRepo := mongodb.NewBookingRepository(db)

	mailer := email.NewLogMailer(log)
	payments := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	authService := service.NewAuthService(userRepo, mailer, cfg.JWT.Secret, cfg.JWT.TokenTTL, log)
	tourService := service.NewTourService(tourRepo)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, bookingRepo, log)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, userRepo, payments, log)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthHandler(authService, cfg.JWT.CookieTTL, cfg.IsProduction(), cfg.BaseURL)
	tourHandler := handler.NewTourHandler(tourRepo, tourService)
	userHandler := handler.NewUserHandler(userRepo, userService)
	reviewHandler := handler.NewReviewHandler(reviewRepo, userRepo, reviewService)
	bookingHandler := handler.NewBookingHandler(bookingRepo, bookingService, cfg.BaseURL)

	protect := middleware.Protect(authService)

	// --- Health probes and metrics ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(db, rdb).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	api := e.Group("/api/v1")

	// --- Tours ---
	tours := api.Group("/tours")
	tours.GET("", tourHandler.List)
	tours.POST("", tourHandler.Create, protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	tours.GET("/top-5-cheap", tourHandler.TopFive)
	tours.GET("/stats", tourHandler.Stats)
	tours.GET("/plans/:year", tourHandler.MonthlyPlan, protect,
		middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide))
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourHandler.Within)
	tours.GET("/distances/:latlng/unit/:unit", tourHandler.Distances)
	tours.GET("/:id", tourHandler.Get)
	tours.PATCH("/:id", tourHandler.Update, protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	tours.DELETE("/:id", tourHandler.Delete, protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))

	// Nested reviews scoped to a parent tour.
	tours.GET("/:tourId/reviews", reviewHandler.List, protect)
	tours.POST("/:tourId/reviews", reviewHandler.Create, protect, middleware.RestrictTo(domain.RoleUser))

	// --- Users / auth ---
	users := api.Group("/users")
	users.POST("/signup", authHandler.Signup)
	users.POST("/login", authHandler.Login)
	users.GET("/logout", authHandler.Logout)
	users.POST("/forgotPassword", authHandler.ForgotPassword)
	users.PATCH("/resetPassword/:token", authHandler.ResetPassword)
	users.PATCH("/updateMyPassword", authHandler.UpdatePassword, protect)

	users.GET("/me", userHandler.GetMe, protect)
	users.PATCH("/updateMe", userHandler.UpdateMe, protect)
	users.DELETE("/deleteMe", userHandler.DeleteMe, protect)

	adminOnly := []echo.MiddlewareFunc{protect, middleware.RestrictTo(domain.RoleAdmin)}
	users.GET("", userHandler.List, adminOnly...)
	users.POST("", userHandler.Create, adminOnly...)
	users.GET("/:id", userHandler.Get, adminOnly...)
	users.PATCH("/:id", userHandler.Update, adminOnly...)
	users.DELETE("/:id", userHandler.Delete, adminOnly...)

	// --- Reviews (flat) ---
	reviews := api.Group("/reviews", protect)
	reviews.GET("", reviewHandler.List)
	reviews.POST("", reviewHandler.Create, middleware.RestrictTo(domain.RoleUser))
	reviews.GET("/:id", reviewHandler.Get)
	reviews.PATCH("/:id", reviewHandler.Update, middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))
	reviews.DELETE("/:id", reviewHandler.Delete, middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))

	// --- Bookings ---
	bookings := api.Group("/bookings")
	bookings.POST(handler.WebhookPath, bookingHandler.Webhook)
	bookings.GET("/checkout-session/:tourId", bookingHandler.Checkout, protect)
	bookings.GET("/my-tours", bookingHandler.MyBookings, protect)

	manageBookings := []echo.MiddlewareFunc{protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)}
	bookings.GET("", bookingHandler.List, manageBookings...)
	bookings.POST("", bookingHandler.Create, manageBookings...)
	bookings.GET("/:id", bookingHandler.Get, manageBookings...)
	bookings.PATCH("/:id", bookingHandler.Update, manageBookings...)
	bookings.DELETE("/:id", bookingHandler.Delete, manageBookings...)

	return e
}
