package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/brightday/internal/logging"
	"github.com/dukerupert/brightday/internal/remotesvc/database"
	"github.com/dukerupert/brightday/internal/remotesvc/server"
)

func main() {
	// Optional .env for local development; production uses real env vars.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("BRIGHTDAY_REMOTE_LOG_LEVEL"))

	port := os.Getenv("BRIGHTDAY_REMOTE_PORT")
	if port == "" {
		port = "8090"
	}

	dbPath := os.Getenv("BRIGHTDAY_REMOTE_DB_PATH")
	if dbPath == "" {
		dbPath = "brightday-remote.db"
	}

	jwtSecret := os.Getenv("BRIGHTDAY_REMOTE_JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("BRIGHTDAY_REMOTE_JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{JWTSecret: jwtSecret}, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("brightday remote service listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
