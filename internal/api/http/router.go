package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Users       *handlers.UsersHandler
	Articles    *handlers.ArticlesHandler
	Categories  *handlers.CategoriesHandler
	Comments    *handlers.CommentsHandler
	Auth        *auth.Middleware
	RateLimiter *auth.IPRateLimiter
}

// RegisterRoutes wires HTTP routes. Registration-class endpoints sit behind
// the IP rate limiter; mutations behind the access guard plus a capability.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	guard := cfg.Auth.Handle(auth.TokenKindAccess)
	refreshGuard := cfg.Auth.Handle(auth.TokenKindRefresh)
	limited := cfg.RateLimiter.Handler()

	users := api.Group("/users")
	users.Post("/visitor-login", limited, cfg.Users.VisitorLogin)
	users.Post("/login", cfg.Users.Login)
	users.Post("/register", limited, cfg.Users.Register)
	users.Post("/logout", guard, cfg.Users.Logout)
	users.Put("/password", guard, cfg.Users.ChangePassword)
	users.Put("/profile", guard, cfg.Users.UpdateProfile)
	users.Get("/search", guard, cfg.Users.Search)
	users.Get("/refresh-token", refreshGuard, cfg.Users.RefreshToken)

	admin := api.Group("/admin")
	admin.Put("/permissions/:userId", guard, auth.RequirePermission(auth.PermPermissionsUpdate), cfg.Users.UpdatePermissions)

	blog := api.Group("/blog")
	blog.Get("/articles", cfg.Articles.List)
	blog.Get("/articles/tags", cfg.Articles.Tags)
	blog.Get("/articles/:id", cfg.Articles.Get)
	blog.Post("/articles", guard, auth.RequirePermission(auth.PermArticleCreate), cfg.Articles.Create)
	blog.Put("/articles/:id", guard, auth.RequirePermission(auth.PermArticleUpdate), cfg.Articles.Update)
	blog.Delete("/articles/:id", guard, auth.RequirePermission(auth.PermArticleDelete), cfg.Articles.Delete)

	blog.Get("/categories", cfg.Categories.List)
	blog.Post("/categories", guard, auth.RequirePermission(auth.PermArticleCreate), cfg.Categories.Create)
	blog.Put("/categories/:id", guard, auth.RequirePermission(auth.PermArticleUpdate), cfg.Categories.Update)
	blog.Delete("/categories/:id", guard, auth.RequirePermission(auth.PermArticleDelete), cfg.Categories.Delete)

	blog.Get("/articles/:id/comments", cfg.Comments.List)
	blog.Post("/articles/:id/comments", guard, cfg.Comments.Create)
	blog.Delete("/comments/:id", guard, cfg.Comments.Delete)
}
