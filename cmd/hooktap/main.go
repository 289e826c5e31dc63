package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hooktap/hooktap/internal/config"
	"github.com/hooktap/hooktap/internal/handlers"
	"github.com/hooktap/hooktap/internal/hub"
	"github.com/hooktap/hooktap/internal/logging"
	"github.com/hooktap/hooktap/internal/middleware"
	"github.com/hooktap/hooktap/internal/server"
	"github.com/hooktap/hooktap/internal/service"
	"github.com/hooktap/hooktap/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service(service.ServiceName))
	logging.SetDefault(logger)

	slog.Info("Starting webhook receiver",
		slog.Int("port", cfg.Server.Port),
		slog.Int("max_webhooks", cfg.Store.MaxWebhooks),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Wire the store, fanout hub and receiver service
	webhookStore := store.New(cfg.Store.MaxWebhooks)
	fanout := hub.New(cfg.WebSocket.SendBuffer)
	receiver := service.New(webhookStore, fanout, logger)

	webhookHandler := handlers.NewWebhookHandler(receiver)
	wsHandler := handlers.NewWSHandler(receiver, handlers.WSConfig{
		AllowedOrigins: cfg.WebSocket.AllowedOrigins,
		PingInterval:   cfg.WebSocket.PingInterval,
		PongTimeout:    cfg.WebSocket.PongTimeout,
	}, logger)

	router := server.NewRouter(webhookHandler, wsHandler)

	corsConfig := middleware.CORSConfig{
		AllowedOrigins: cfg.WebSocket.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}
	handler := middleware.CORS(corsConfig)(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		base := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		slog.Info("Webhook receiver listening", slog.String("addr", srv.Addr))
		slog.Info("Endpoints ready",
			slog.String("webhook", base+"/webhook"),
			slog.String("webhooks", base+"/webhooks"),
			slog.String("stats", base+"/stats"),
			slog.String("health", base+"/health"),
			slog.String("websocket", base+"/ws"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down webhook receiver")

	// Detach observers first so their sockets close cleanly.
	fanout.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}
