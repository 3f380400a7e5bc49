package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-service/internal/api/http"
	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
	"github.com/spec-kit/blog-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	tokens := auth.NewTokenManager(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL(),
		cfg.Auth.RefreshTokenTTL(),
	)
	store := auth.NewRedisStore(redis.Client, 0)
	blacklist := auth.NewBlacklist(store, cfg.Auth.BlacklistTTL, logger)
	authMiddleware := auth.NewMiddleware(tokens, blacklist, userRepo)
	rateLimiter := auth.NewIPRateLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window())

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger)
	notificationService.RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Blacklist:  blacklist,
		Dispatcher: dispatcher,
	}, logger)
	articleService := service.NewArticleService(service.ArticleDependencies{
		ArticleRepo:  articleRepo,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
	})
	commentService := service.NewCommentService(commentRepo, articleRepo, dispatcher)

	if pool != nil {
		if err := authService.EnsureSuperAdmin(ctx, cfg.Bootstrap.SuperAdminAccount, cfg.Bootstrap.SuperAdminPassword); err != nil {
			logger.Error("failed to seed super admin", zap.Error(err))
		}
	}

	if cfg.Cleanup.Enabled && pool != nil {
		cleanup := worker.NewCleanupWorker(userRepo, cfg.Cleanup, logger)
		go cleanup.Run(ctx)
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:       handlers.NewUsersHandler(authService),
		Articles:    handlers.NewArticlesHandler(articleService),
		Categories:  handlers.NewCategoriesHandler(articleService),
		Comments:    handlers.NewCommentsHandler(commentService),
		Auth:        authMiddleware,
		RateLimiter: rateLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
