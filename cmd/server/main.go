package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurbezz/shared-lists/internal/config"
	"github.com/kurbezz/shared-lists/internal/database"
	"github.com/kurbezz/shared-lists/internal/handlers"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/internal/session"
	"github.com/kurbezz/shared-lists/internal/storage"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	var sessions session.Store
	if cfg.Redis.URL != "" {
		redisStore, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis initialization failed: %v", err)
		}
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		dbStore := session.NewDBStore(db)
		dbStore.StartSweeper(ctx, 10*time.Minute)
		sessions = dbStore
	}

	var uploader services.ObjectUploader
	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := storageClient.EnsureBucket(ctx); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		uploader = storageClient
	}

	auditService := services.NewAuditService(db, uploader, cfg.Audit.QueueSize)
	auditService.StartExporter(ctx, cfg.Audit.ExportInterval)

	oauthService := services.NewOAuthProviderService(cfg.OAuth)
	if !oauthService.Enabled() {
		logger.Warn("twitch_oauth_disabled", map[string]interface{}{
			"reason": "TWITCH_CLIENT_ID or TWITCH_CLIENT_SECRET is not set",
		})
	}

	app := handlers.NewApp(handlers.Deps{
		Cfg:      cfg,
		DB:       db,
		Sessions: sessions,
		Audit:    auditService,
		OAuth:    oauthService,
	})

	listenAddr := cfg.Server.ListenAddr()

	logger.Info("server_starting", map[string]interface{}{
		"address":      listenAddr,
		"db_driver":    cfg.DB.Driver,
		"session_mode": sessionMode(cfg),
		"audit_export": cfg.MinIO.Enabled,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			auditService.Close()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

func sessionMode(cfg *config.Config) string {
	if cfg.Redis.URL != "" {
		return "redis"
	}
	return "database"
}
