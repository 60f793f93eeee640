package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/dtroode/qubras-auth/internal/api/rest/router"
	httpServer "github.com/dtroode/qubras-auth/internal/api/rest/server"
	"github.com/dtroode/qubras-auth/internal/cache"
	"github.com/dtroode/qubras-auth/internal/config"
	"github.com/dtroode/qubras-auth/internal/identity/gotrue"
	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/metrics"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/repository/postgres"
	"github.com/dtroode/qubras-auth/internal/server"
	"github.com/dtroode/qubras-auth/internal/service"
	storage "github.com/dtroode/qubras-auth/internal/storage/minio"
	"github.com/dtroode/qubras-auth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	profileRepo := postgres.NewProfileRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	sessionCache := cache.NewSessionCache(rdb, cfg.Redis.KeyPrefix, cfg.Redis.SessionTTL)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	avatarStorage, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	providers := make([]model.OAuthProvider, 0, len(cfg.Identity.Providers))
	for _, p := range cfg.Identity.Providers {
		providers = append(providers, model.OAuthProvider(p))
	}
	identity := gotrue.NewClient(gotrue.Options{
		BaseURL:       cfg.Identity.URL,
		APIKey:        cfg.Identity.APIKey,
		Limiter:       rate.NewLimiter(rate.Limit(cfg.Identity.RateLimit), cfg.Identity.RateBurst),
		Tokens:        token.NewJWT(cfg.Identity.JWTSecret),
		Cache:         sessionCache,
		Providers:     providers,
		RefreshMargin: cfg.Controller.RefreshMargin,
		Logger:        logger.Component("identity"),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	manager := service.NewManager(service.ManagerDeps{
		Identity: identity,
		Profiles: profileRepo,
		Avatars:  avatarStorage,
		Metrics:  collector,
		Logger:   logger.Component("controller"),
	}, service.ManagerConfig{
		SiteURL:            cfg.Identity.SiteURL,
		SafetyTimeout:      cfg.Controller.SafetyTimeout,
		MaxAttempts:        cfg.Controller.MaxAttempts,
		RetryStep:          cfg.Controller.RetryStep,
		NotificationBuffer: cfg.Controller.NotificationBuffer,
	})
	defer manager.Close()

	unsubscribe := manager.OnNotify(func(n model.Notification) {
		logger.Info("Notification", "level", n.Level, "op", n.Op, "message", n.Message)
	})
	defer unsubscribe()

	if err := manager.Start(ctx); err != nil {
		logger.Fatal("failed to start session controller", "error", err)
	}

	if cfg.Identity.AutoRefresh {
		go identity.AutoRefresh(ctx, max(cfg.Controller.RefreshMargin/2, time.Second))
	}

	if cfg.Identity.Email != "" {
		go func() {
			if err := manager.SignIn(ctx, cfg.Identity.Email, cfg.Identity.Password); err != nil {
				logger.Error("configured sign in failed", "error", err)
			}
		}()
	}

	r := router.New(manager, identity, metrics.Handler(registry), cfg.Identity.SiteURL, logger.Component("http"))
	srv := httpServer.NewHTTPServer(r.Register(), cfg.HTTP.Addr)

	sl, err := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
	if err != nil {
		logger.Fatal("failed to configure listener", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	manager.Close()
	if err := manager.Wait(shutdownCtx); err != nil {
		logger.Warn("session controller did not drain in time", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
