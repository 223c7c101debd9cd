package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-index/internal/database"
	"media-index/internal/handlers"
	"media-index/internal/lifecycle"
	"media-index/internal/logging"
	"media-index/internal/middleware"
	"media-index/internal/snapshot"
	"media-index/internal/source"
	"media-index/internal/startup"
	"media-index/internal/syncer"
)

func main() {
	logging.Info("Starting media-index...")

	cfg, err := startup.Load()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}
	cfg.LogSummary()

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabasePath())
	if err != nil {
		logging.Fatal("Failed to open index database: %v", err)
	}
	defer db.Close()

	src := source.NewFilesystem(cfg.MediaDir)

	sync := syncer.New(db, src, cfg.SyncInterval)
	sync.Start()
	defer sync.Stop()

	manager := lifecycle.New(db, lifecycle.OSDeleter{}, cfg.TrashRetention, cfg.SweepInterval)
	manager.Start()
	defer manager.Stop()

	engine := snapshot.New(db)

	h := handlers.New(db, sync, manager, engine)

	router := mux.NewRouter()
	router.Use(middleware.Logger(middleware.DefaultLoggingConfig()))
	router.Use(middleware.Metrics())
	h.RegisterRoutes(router)

	go serveMetrics(cfg.MetricsPort, db)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go handleShutdown(server, sync, manager)

	logging.Info("Listening on :%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

// serveMetrics exposes Prometheus metrics on a separate port and refreshes
// the DB gauge before each scrape.
func serveMetrics(port string, db *database.Database) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db.UpdateDBMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	}))

	logging.Info("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, metricsMux); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(server *http.Server, sync *syncer.Syncer, manager *lifecycle.Manager) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("Shutting down...")

	sync.Stop()
	manager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error: %v", err)
	}
}
