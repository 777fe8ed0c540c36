package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"activity-guard/internal/auth"
	"activity-guard/internal/circuitbreaker"
	"activity-guard/internal/common/logging"
	"activity-guard/internal/config"
	"activity-guard/internal/handlers"
	"activity-guard/internal/middleware"
	"activity-guard/internal/scheduler"
	"activity-guard/internal/secrets"
	"activity-guard/internal/secrets/filestore"
	"activity-guard/internal/secrets/memstore"
	"activity-guard/internal/secrets/redisstore"
	"activity-guard/internal/secrets/sqlitestore"
	"activity-guard/internal/server"
	"activity-guard/internal/strava"
	"activity-guard/internal/tokens"
	"activity-guard/internal/webhook"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", err)
		os.Exit(1)
	}

	store, err := buildStore(cfg)
	if err != nil {
		logger.Error("failed to initialize secret store", err)
		os.Exit(1)
	}
	defer store.Close()

	client := strava.NewClient(strava.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURI:  cfg.StravaRedirectURI,
		BaseURL:      cfg.StravaBaseURL,
		Timeout:      cfg.HTTPTimeoutDuration(),
	})
	breaker := circuitbreaker.New("strava", circuitbreaker.DefaultConfig(), logger)
	platform := strava.NewGuardedClient(client, breaker)

	tokenManager := tokens.NewManager(store, platform, logger)
	dispatcher := webhook.NewDispatcher(cfg.WebhookVerifyToken, tokenManager, platform, logger)
	guard := auth.New(cfg.AuthJWTSecret, logger)

	h := handlers.New(platform, tokenManager, dispatcher, store, logger)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.Handle("/authorize", guard.RequireAuth(http.HandlerFunc(h.HandleAuthorize))).Methods("GET")
	router.Handle("/callback", guard.RequireAuth(http.HandlerFunc(h.HandleCallback))).Methods("GET")
	router.HandleFunc("/webhook", h.HandleWebhookVerify).Methods("GET")
	router.HandleFunc("/webhook", h.HandleWebhookEvent).Methods("POST")
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	router.HandleFunc("/", h.HandleIndex).Methods("GET")

	refreshScheduler := scheduler.New(tokenManager, logger)
	if err := refreshScheduler.Start(); err != nil {
		logger.Error("failed to start refresh scheduler", err)
		os.Exit(1)
	}

	srv := server.New(router, cfg.Port)
	errCh := srv.Start()
	logger.Info("server started",
		logging.Field{Key: "port", Value: cfg.Port},
		logging.Field{Key: "store", Value: cfg.StoreType})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", err)
		os.Exit(1)
	case sig := <-quit:
		logger.Info("shutting down", logging.Field{Key: "signal", Value: sig.String()})
	}

	refreshScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// buildStore registers the available backends and creates the configured
// one.
func buildStore(cfg *config.Config) (secrets.Store, error) {
	secrets.Register(config.StoreMemory, &memstore.Factory{})
	secrets.Register(config.StoreFile, &filestore.Factory{})
	secrets.Register(config.StoreRedis, &redisstore.Factory{})
	secrets.Register(config.StoreSQLite, &sqlitestore.Factory{})

	var storeConfig secrets.StoreConfig
	switch cfg.StoreType {
	case config.StoreFile:
		storeConfig = &filestore.Config{
			Dir:           cfg.FileStoreDir,
			EncryptionKey: cfg.StoreEncryptionKey,
		}
	case config.StoreRedis:
		db, _ := strconv.Atoi(cfg.RedisDB)
		poolSize, _ := strconv.Atoi(cfg.RedisPoolSize)
		storeConfig = &redisstore.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       db,
			PoolSize: poolSize,
		}
	case config.StoreSQLite:
		storeConfig = &sqlitestore.Config{DatabasePath: cfg.SQLitePath}
	default:
		storeConfig = &memstore.Config{}
	}

	return secrets.Create(cfg.StoreType, storeConfig)
}
