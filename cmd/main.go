package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatgrid/chat-service/config"
	"github.com/chatgrid/chat-service/internal/ai"
	"github.com/chatgrid/chat-service/internal/identity"
	"github.com/chatgrid/chat-service/internal/mongodb"
	"github.com/chatgrid/chat-service/internal/registry"
	"github.com/chatgrid/chat-service/internal/service"
	httpx "github.com/chatgrid/chat-service/internal/transport/http"
	"github.com/chatgrid/chat-service/internal/transport/ws"
	"github.com/chatgrid/chat-service/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// --- config ---
	_ = godotenv.Load() // .env опционален, в проде переменные уже в окружении

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- mongo ---
	ctx := context.Background()
	store, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	// --- repos ---
	groupRepo := mongodb.NewGroupRepository(store.DB)
	profileRepo := mongodb.NewProfileRepository(store.DB)

	// --- external providers ---
	ident, err := identity.New(identity.Options{
		BaseURL: cfg.Identity.BaseURL,
		APIKey:  cfg.Secrets.IdentityAPIKey,
		Timeout: cfg.IdentityTimeout(),
	})
	if err != nil {
		log.Fatalf("identity client: %v", err)
	}

	completer, err := ai.New(ai.Options{
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		APIKey:  cfg.Secrets.AIAPIKey,
		Timeout: cfg.AITimeout(),
	})
	if err != nil {
		log.Fatalf("ai client: %v", err)
	}

	// --- registry, services, hub ---
	reg := registry.New()
	hub := ws.NewHub(reg)

	groupSvc := service.NewGroupService(groupRepo, profileRepo)
	chatSvc := service.NewChatService(groupRepo, reg, completer)

	wsServer := ws.NewServer(hub, reg, ident, groupRepo, chatSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(groupSvc, chatSvc, hub, reg)
	router := httpx.NewRouter(handler, wsServer, cfg.HTTP.AllowedOrigin)
	// WriteTimeout не ставим: /ws держит соединение открытым
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
