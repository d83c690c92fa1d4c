package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smartlib/database"
	"smartlib/internal/config"
	"smartlib/internal/httpapi/handler"
	"smartlib/internal/httpapi/middleware"
	"smartlib/internal/httpapi/repository"
	"smartlib/internal/httpapi/service"
	"smartlib/internal/notify"
	"smartlib/internal/sweep"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Error("upload directory unavailable", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	queue, err := notify.NewRedisQueue(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mail worker drains the notification queue in the background.
	mailer := notify.NewMailer(cfg)
	worker := notify.NewWorker(queue, mailer, logger)
	go worker.Run(ctx)

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	authService := service.NewAuthService(userRepo, queue, cfg, logger)
	catalogService := service.NewCatalogService(bookRepo, txRepo)
	lendingService := service.NewLendingService(txRepo, bookRepo, userRepo, queue, logger)
	userService := service.NewUserService(userRepo, queue, cfg, logger)

	// Lateness sweep and due-date reminders.
	sweeper := sweep.New(txRepo, queue, logger)
	go sweeper.Run(ctx, cfg.SweepInterval)
	go sweeper.RunReminder(ctx, cfg.ReminderInterval)

	r := newRouter(cfg, logger, authService, catalogService, lendingService, userService)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if err := queue.Close(); err != nil {
		logger.Error("redis close failed", "error", err)
	}
}

func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	authService service.AuthService,
	catalogService service.CatalogService,
	lendingService service.LendingService,
	userService service.UserService,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Smart Library API is running"})
	})
	r.Static("/uploads", cfg.UploadDir)

	authHandler := handler.NewAuthHandler(authService, logger)
	bookHandler := handler.NewBookHandler(catalogService, cfg.UploadDir, cfg.UploadBaseURL, logger)
	txHandler := handler.NewTransactionHandler(lendingService, cfg.UploadBaseURL, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	auth := r.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(cfg.AuthRateRPS, cfg.AuthRateBurst, logger))
	authHandler.RegisterRoutes(auth)

	protected := middleware.AuthMiddleware(authService)

	books := r.Group("/books", protected)
	bookHandler.RegisterRoutes(books)

	transactions := r.Group("/transactions", protected)
	txHandler.RegisterRoutes(transactions)

	users := r.Group("/user", protected)
	userHandler.RegisterRoutes(users)

	return r
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
