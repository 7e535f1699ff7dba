package routes

import (
	"time"

	"bilet-lending/internal/adapters/http/handlers"
	"bilet-lending/internal/adapters/http/middleware"
	"bilet-lending/internal/config"
	"bilet-lending/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, store handlers.Pinger, svc *services.Container, cfg *config.Config) {
	tokenTTL := time.Duration(cfg.JWT.AccessTokenMins) * time.Minute

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Users, cfg.IsProd(), tokenTTL)
	userHandler := handlers.NewUserHandler(svc.Users)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, svc.Inventory)
	lendingHandler := handlers.NewLendingHandler(svc.Lending)
	renewalHandler := handlers.NewRenewalHandler(svc.Renewals)
	eventHandler := handlers.NewEventHandler(svc.Events)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := middleware.AuthMiddleware(svc.Auth)

	// API v1 group
	v1 := app.Group("/api/v1")
	setupAuthRoutes(v1.Group("/auth"), authHandler, auth, cfg)
	setupUserRoutes(v1.Group("/users", auth), userHandler, lendingHandler)
	setupCatalogRoutes(v1, catalogHandler, auth)
	setupLendingRoutes(v1, lendingHandler, renewalHandler, auth)
	setupEventRoutes(v1.Group("/events"), eventHandler, auth)
	setupMeRoutes(v1.Group("/me", auth, middleware.NoCacheHeaders()), lendingHandler, notificationHandler)
}

// setupAuthRoutes configures login routes, one per portal, and the session routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler, cfg *config.Config) {
	// Login throttling is off in dev so local scripts can log in freely
	limit := func(c *fiber.Ctx) error { return c.Next() }
	if !cfg.IsDev() {
		limit = middleware.AuthRateLimiter()
	}

	router.Post("/reader/login", limit, handler.ReaderLogin)
	router.Post("/library/login", limit, handler.LibraryLogin)
	router.Post("/admin/login", limit, handler.AdminLogin)
	router.Post("/refresh", limit, handler.Refresh)
	router.Post("/logout", handler.Logout)
	router.Post("/logout-all", auth, handler.LogoutAll)

	router.Get("/me", auth, handler.Me)
}

// setupUserRoutes configures account management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, lending *handlers.LendingHandler) {
	router.Post("/", middleware.StaffOnly(), handler.CreateUser)
	router.Get("/", middleware.StaffOnly(), handler.ListUsers)
	router.Get("/:id", middleware.PrivateCacheHeaders(30*time.Second), handler.GetUser)
	router.Get("/:id/loans", middleware.StaffOnly(), lending.ReaderLoans)
	router.Delete("/:id", middleware.AdminOnly(), handler.DeleteUser)
}

// setupCatalogRoutes configures titles, copies, authors and genres.
// Reads are public; writes need library staff.
func setupCatalogRoutes(router fiber.Router, handler *handlers.CatalogHandler, auth fiber.Handler) {
	staff := []fiber.Handler{auth, middleware.StaffOnly()}
	cache := middleware.CacheControl(time.Minute)

	router.Get("/authors", cache, handler.ListAuthors)
	router.Post("/authors", append(staff, handler.CreateAuthor)...)
	router.Get("/genres", cache, handler.ListGenres)
	router.Post("/genres", append(staff, handler.CreateGenre)...)

	books := router.Group("/books")
	books.Get("/", handler.ListBookGroups)
	books.Get("/top", cache, handler.TopBooks)
	books.Post("/", append(staff, handler.CreateBookGroup)...)
	books.Get("/:id", handler.GetBookGroup)
	books.Get("/:id/availability", handler.Availability)
	books.Get("/:id/copies", handler.ListCopies)
	books.Post("/:id/copies", append(staff, handler.AddCopy)...)

	copies := router.Group("/copies")
	copies.Get("/:id", handler.GetCopy)
	copies.Patch("/:id/condition", append(staff, handler.UpdateCondition)...)
	copies.Patch("/:id/status", append(staff, handler.SetCopyStatus)...)
}

// setupLendingRoutes configures issue, return and renewals
func setupLendingRoutes(router fiber.Router, lending *handlers.LendingHandler, renewals *handlers.RenewalHandler, auth fiber.Handler) {
	staff := middleware.StaffOnly()

	router.Post("/copies/:id/return", auth, staff, lending.ReturnCopy)

	loans := router.Group("/loans", auth)
	loans.Post("/", staff, lending.Issue)
	loans.Get("/:id", lending.GetLoan)
	loans.Post("/:id/return", staff, lending.MarkReturned)
	loans.Post("/:id/extend", renewals.Extend)

	renewalRoutes := router.Group("/renewals", auth, staff)
	renewalRoutes.Get("/", renewals.ListPending)
	renewalRoutes.Post("/:id/approve", renewals.Approve)
	renewalRoutes.Post("/:id/reject", renewals.Reject)
}

// setupEventRoutes configures events and registration
func setupEventRoutes(router fiber.Router, handler *handlers.EventHandler, auth fiber.Handler) {
	router.Get("/", handler.ListEvents)
	router.Get("/:id", handler.GetEvent)
	router.Post("/", auth, middleware.StaffOnly(), handler.CreateEvent)
	router.Post("/:id/register", auth, handler.Register)
	router.Post("/:id/unregister", auth, handler.Unregister)
}

// setupMeRoutes configures the caller's own loans and notifications
func setupMeRoutes(router fiber.Router, lending *handlers.LendingHandler, notifications *handlers.NotificationHandler) {
	router.Get("/loans/active", lending.MyActiveLoans)
	router.Get("/loans/returned", lending.MyReturnedLoans)
	router.Get("/notifications", notifications.List)
	router.Post("/notifications/:id/read", notifications.MarkRead)
}
