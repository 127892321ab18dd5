package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/Preko700/GreenView-sub000/config"
	"github.com/Preko700/GreenView-sub000/internal/alert"
	"github.com/Preko700/GreenView-sub000/internal/api"
	"github.com/Preko700/GreenView-sub000/internal/db"
	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/mqtt"
	"github.com/Preko700/GreenView-sub000/internal/notification"
	"github.com/Preko700/GreenView-sub000/internal/session"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "greenviewd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Web push is optional; without VAPID keys, alerts are persisted only.
	var webpushOptions *webpush.Options
	evaluator := alert.NewEvaluator(appStore, cfg.Alerts.Cooldown)
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		evaluator.SetNotifier(func(n model.Notification) { pool.Dispatch(n) })
	} else {
		logger.Println("VAPID keys not configured; web push delivery disabled")
	}

	ingestSvc := ingest.NewService(appStore, evaluator)

	// Stream transport to the locally-attached unit.
	var sessions *session.Manager
	if cfg.Transport.Enabled {
		sessions = session.NewManager(appStore, ingestSvc, cfg.Transport.ReadBufferBytes)
		opener, err := session.Opener(cfg.Transport.DSN)
		if err != nil {
			logger.Fatalf("invalid transport configuration: %v", err)
		}
		go func() {
			if err := sessions.Connect(ctx, opener); err != nil {
				logger.Printf("transport connect failed: %v", err)
			}
		}()
	}

	// Optional MQTT ingest bridge.
	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		bridge, err = mqtt.NewBridge(&cfg.MQTT, ingestSvc)
		if err != nil {
			logger.Fatalf("failed to initialize MQTT bridge: %v", err)
		}
		if err := bridge.Start(ctx); err != nil {
			logger.Fatalf("failed to start MQTT bridge: %v", err)
		}
	}

	router := api.NewRouter(&cfg.Server, appStore, ingestSvc, sessions, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	if sessions != nil {
		sessions.Disconnect()
	}
	if bridge != nil {
		bridge.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
