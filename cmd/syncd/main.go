package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pinsync/client/internal/config"
	"github.com/pinsync/client/internal/handlers"
	"github.com/pinsync/client/internal/localstate"
	custommw "github.com/pinsync/client/internal/middleware"
	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/repository"
	"github.com/pinsync/client/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize telemetry
	telemetry, err := observability.Initialize(ctx, observability.NewConfig("pinsync-client", serviceVersion))
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			observability.Warnf("Telemetry shutdown error: %v", err)
		}
	}()

	// Initialize the two record stores
	privateStore, closePrivate, err := openStore(cfg.PrivateStore)
	if err != nil {
		log.Fatalf("Failed to open private store: %v", err)
	}
	defer closePrivate()

	publicStore, closePublic, err := openStore(cfg.PublicStore)
	if err != nil {
		log.Fatalf("Failed to open public store: %v", err)
	}
	defer closePublic()

	// Initialize local state for offline durability
	state, closeState, err := openLocalState(cfg.LocalState)
	if err != nil {
		log.Fatalf("Failed to open local state: %v", err)
	}
	defer closeState()

	// Metrics
	syncMetrics, err := observability.NewSyncMetrics()
	if err != nil {
		log.Fatalf("Failed to create sync metrics: %v", err)
	}
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}

	// Event hub
	hub := services.NewEventHub()
	go hub.Run()

	// Services
	queue, err := services.NewRetryQueue(ctx, state, syncMetrics)
	if err != nil {
		log.Fatalf("Failed to load retry queue: %v", err)
	}

	feedService, err := services.NewFeedService(
		privateStore,
		publicStore,
		state,
		queue,
		hub,
		syncMetrics,
		time.Duration(cfg.Sync.SaveTimeoutSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to create feed service: %v", err)
	}

	commentService := services.NewCommentService(privateStore, publicStore, hub)
	groupService := services.NewGroupService(publicStore)

	monitor := services.NewConnectivityMonitor(
		[]repository.RecordStore{privateStore, publicStore},
		time.Duration(cfg.Sync.ProbeIntervalSeconds)*time.Second,
		feedService.OnConnectivityRestored,
		hub,
	)

	// Handlers
	feedHandler := handlers.NewFeedHandler(feedService)
	commentHandler := handlers.NewCommentHandler(commentService, feedService)
	groupHandler := handlers.NewGroupHandler(groupService)
	statusHandler := handlers.NewStatusHandler(feedService, monitor)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.MetricsMiddleware(httpMetrics))
	r.Use(custommw.APIKeyAuth(cfg.Security.APIKey, cfg.Security.APIKeyHeader))

	// Routes
	r.Get("/health", statusHandler.HealthCheck)
	r.Get("/api/health", statusHandler.HealthCheck)
	r.Get("/api/status", statusHandler.Status)
	r.Post("/api/connectivity/restored", statusHandler.ConnectivityRestored)

	r.Route("/api/feed", func(r chi.Router) {
		r.Get("/", feedHandler.GetFeed)
		r.Post("/refresh", feedHandler.RefreshFeed)
		r.Get("/visible", feedHandler.GetVisibleFeed)
	})

	r.Route("/api/pins", func(r chi.Router) {
		r.Post("/", feedHandler.AddPin)
		r.Delete("/{id}", feedHandler.DeletePin)
		r.Get("/{id}/comments", commentHandler.GetComments)
		r.Post("/{id}/comments", commentHandler.AddComment)
	})

	r.Get("/api/groups/{id}/members", groupHandler.GetMembers)
	r.Get("/api/ws", wsHandler.HandleConnection)
	r.Get("/ws", wsHandler.HandleConnection)

	// Populate the feed before serving, then start connectivity probing
	feedService.Refresh(ctx)
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	monitor.Start(monitorCtx)

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Infof("PinSync client daemon starting on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("Shutting down server...")
	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	observability.Info("Server stopped")
}

// openStore opens one record store per its config: PostgreSQL when a URL is
// set, SQLite otherwise.
func openStore(cfg config.Store) (repository.RecordStore, func(), error) {
	if cfg.UsePostgres() {
		db, err := repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRecordRepositoryPostgres(db), func() { db.Close() }, nil
	}

	db, err := repository.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRecordRepository(db), func() { db.Close() }, nil
}

// openLocalState opens the durable blob store backing pending pins and the
// retry queue.
func openLocalState(cfg config.LocalState) (localstate.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		store, err := localstate.NewRedisStore(localstate.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "memory":
		return localstate.NewMemoryStore(), func() {}, nil

	default:
		db, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return localstate.NewSQLiteStore(db), func() { db.Close() }, nil
	}
}
