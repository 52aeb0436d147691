package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kurbezz/shared-lists/internal/config"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/internal/session"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs from the rest of the process.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Sessions session.Store
	Audit    *services.AuditService
	OAuth    *services.OAuthProviderService
}

// NewApp builds the fiber app with the middleware stack and every route.
func NewApp(d Deps) *fiber.App {
	bodyLimit := d.Cfg.Server.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1024 * 1024
	}

	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.CORS(d.Cfg.Server.FrontendURL))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	RegisterRoutes(app.Group("/api"), d)

	return app
}

func RegisterRoutes(api fiber.Router, d Deps) {
	accessService := services.NewAccessService(d.DB)
	orderingService := services.NewOrderingService(d.DB)
	sharingService := services.NewSharingService(d.DB)
	identityService := services.NewIdentityService(d.DB)
	apiKeyService := services.NewAPIKeyService(d.DB, d.Cfg.JWT.Secret)

	oauthService := d.OAuth
	if oauthService == nil {
		oauthService = services.NewOAuthProviderService(d.Cfg.OAuth)
	}

	authHandler := NewAuthHandler(d.Cfg, oauthService, identityService, d.Sessions, d.Audit)
	usersHandler := NewUsersHandler(identityService, d.Audit)
	pagesHandler := NewPagesHandler(d.DB, accessService, d.Audit)
	listsHandler := NewListsHandler(d.DB, accessService, orderingService, d.Audit)
	itemsHandler := NewItemsHandler(d.DB, accessService, orderingService, d.Audit)
	permissionsHandler := NewPermissionsHandler(accessService, sharingService, d.Audit)
	publicHandler := NewPublicHandler(sharingService)
	apiKeysHandler := NewAPIKeysHandler(apiKeyService, d.Audit)

	authMiddleware := middleware.NewAuthMiddleware(d.DB, d.Sessions, apiKeyService)

	authRoutes := api.Group("/auth")
	authRoutes.Get("/login", authHandler.Login)
	authRoutes.Get("/callback", authHandler.Callback)
	authRoutes.Post("/logout", authHandler.Logout)

	api.Get("/public/:slug", publicHandler.Get)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth)
	userRoutes.Get("/me", usersHandler.Me)
	userRoutes.Patch("/me", usersHandler.UpdateMe)
	userRoutes.Get("/search", usersHandler.Search)

	pageRoutes := api.Group("/pages", authMiddleware.RequireAuth)
	pageRoutes.Get("/", pagesHandler.List)
	pageRoutes.Post("/", pagesHandler.Create)
	pageRoutes.Get("/:id", pagesHandler.Get)
	pageRoutes.Patch("/:id", pagesHandler.Update)
	pageRoutes.Delete("/:id", pagesHandler.Delete)
	pageRoutes.Get("/:id/activity", pagesHandler.Activity)
	pageRoutes.Put("/:id/public-slug", permissionsHandler.SetPublicSlug)

	pageRoutes.Get("/:id/permissions", permissionsHandler.List)
	pageRoutes.Post("/:id/permissions", permissionsHandler.Grant)
	pageRoutes.Patch("/:id/permissions/:permId", permissionsHandler.Update)
	pageRoutes.Delete("/:id/permissions/:permId", permissionsHandler.Revoke)

	pageRoutes.Get("/:id/lists", listsHandler.List)
	pageRoutes.Post("/:id/lists", listsHandler.Create)
	pageRoutes.Put("/:id/lists/reorder", listsHandler.Reorder)
	pageRoutes.Get("/:id/lists/:listId", listsHandler.Get)
	pageRoutes.Patch("/:id/lists/:listId", listsHandler.Update)
	pageRoutes.Delete("/:id/lists/:listId", listsHandler.Delete)

	listRoutes := api.Group("/lists", authMiddleware.RequireAuth)
	listRoutes.Get("/:id/items", itemsHandler.List)
	listRoutes.Post("/:id/items", itemsHandler.Create)
	listRoutes.Put("/:id/items/reorder", itemsHandler.Reorder)
	listRoutes.Get("/:id/items/:itemId", itemsHandler.Get)
	listRoutes.Patch("/:id/items/:itemId", itemsHandler.Update)
	listRoutes.Delete("/:id/items/:itemId", itemsHandler.Delete)

	keyRoutes := api.Group("/settings/api-keys", authMiddleware.RequireAuth)
	keyRoutes.Get("/", apiKeysHandler.List)
	keyRoutes.Post("/", middleware.SessionOnly, apiKeysHandler.Create)
	keyRoutes.Delete("/:id", apiKeysHandler.Delete)
}
