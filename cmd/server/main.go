package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahul-charaki/chat-app-be/internal/auth"
	"github.com/rahul-charaki/chat-app-be/internal/cache"
	"github.com/rahul-charaki/chat-app-be/internal/config"
	"github.com/rahul-charaki/chat-app-be/internal/handler"
	"github.com/rahul-charaki/chat-app-be/internal/hub"
	"github.com/rahul-charaki/chat-app-be/internal/presence"
	"github.com/rahul-charaki/chat-app-be/internal/repository"
	"github.com/rahul-charaki/chat-app-be/internal/service"
	"github.com/rahul-charaki/chat-app-be/pkg/database"
	"github.com/rahul-charaki/chat-app-be/pkg/jwt"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
	"github.com/rahul-charaki/chat-app-be/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat server")

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &repository.UserModel{}, &repository.MessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Optional redis presence mirror
	var presenceCache cache.PresenceCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisPresenceCache(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		presenceCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis presence mirror enabled")
	}

	// File storage
	files, err := newStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to initialize storage")
	}

	// Tokens
	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.Issuer)
	verifier := auth.NewJWTVerifier(tokens)

	// Realtime core
	directory := presence.NewDirectory()
	wsHub := hub.NewHub(directory)
	chatSvc := service.NewChatService(wsHub, directory, verifier, userRepo, messageRepo, presenceCache)

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(userRepo, messageRepo, tokens, verifier, directory, presenceCache, files, cfg.Storage.URLTTL)

	// HTTP router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(*logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})
	httpHandler.RegisterRoutes(router)

	// Locally stored uploads are served directly; S3 URLs are presigned.
	if cfg.Storage.Backend == "local" {
		router.Static("/files", cfg.Storage.Local.BasePath)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3)
	case "local", "":
		return storage.NewLocalStorage(cfg.Storage.Local)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
