package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"staffhub/internal/config"
	"staffhub/internal/drive"
	"staffhub/internal/events"
	"staffhub/internal/folders"
	"staffhub/internal/gateway"
	"staffhub/internal/handler"
	"staffhub/internal/lock"
	"staffhub/internal/middleware"
	"staffhub/internal/queue"
	"staffhub/internal/ratelimit"
	"staffhub/internal/repository"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Verify database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to database")

	// Connect to Redis (send-velocity window)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// Connect to RabbitMQ. Delivery events are best-effort, so a broker
	// outage at startup degrades to no events instead of refusing to boot.
	var publisher queue.EventPublisher
	conn, err := events.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Printf("⚠️  RabbitMQ unavailable, delivery events disabled: %v", err)
	} else {
		defer conn.Close()
		p, err := events.NewPublisher(conn, "delivery_events")
		if err != nil {
			log.Printf("⚠️  Failed to set up delivery event publisher: %v", err)
		} else {
			publisher = p
			log.Println("✅ Connected to RabbitMQ")
		}
	}

	// Repositories
	tenantRepo := repository.NewTenantRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	logRepo := repository.NewMessageLogRepository(db)

	// Services
	sender := gateway.NewWhatsAppClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	limiter := ratelimit.NewRedisWindow(rdb, cfg.Queue.WindowSize)
	queueSvc := queue.NewService(cfg.Queue, tenantRepo, logRepo, sender, limiter, publisher)

	storage := drive.NewClient(cfg.Drive.BaseURL, cfg.Drive.AccessToken, cfg.Drive.Timeout)
	locker := lock.NewPostgresLocker(db)
	folderSvc := folders.NewService(folderRepo, employeeRepo, tenantRepo, storage, locker, cfg.Queue.LockTimeout)
	log.Println("✅ Services initialized")

	// The queues live in this process, so the stale-batch sweep runs here
	c := cron.New()
	_, err = c.AddFunc("@hourly", func() {
		if removed := queueSvc.Cleanup(cfg.Queue.CleanupMaxAge); removed > 0 {
			log.Printf("Queue cleanup removed %d stale batches", removed)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule queue cleanup: %v", err)
	}
	c.Start()

	// Handlers
	queueHandler := handler.NewQueueHandler(queueSvc)
	folderHandler := handler.NewFolderHandler(folderSvc)

	// Create router
	router := mux.NewRouter()
	router.Use(middleware.Recovery)

	// Health endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connection
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"disconnected"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"connected"}`))
	}).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/tenants/{tenantId}/messages", queueHandler.Enqueue).Methods("POST")
	api.HandleFunc("/tenants/{tenantId}/queue", queueHandler.Status).Methods("GET")
	api.HandleFunc("/tenants/{tenantId}/queue/pause", queueHandler.Pause).Methods("POST")
	api.HandleFunc("/tenants/{tenantId}/queue/resume", queueHandler.Resume).Methods("POST")
	api.HandleFunc("/tenants/{tenantId}/queue/batches/{batchId}", queueHandler.Cancel).Methods("DELETE")

	api.HandleFunc("/folders", folderHandler.Create).Methods("POST")
	api.HandleFunc("/folders/bulk", folderHandler.BulkCreate).Methods("POST")
	api.HandleFunc("/folders/cleanup", folderHandler.CleanupDuplicates).Methods("POST")

	// Start server
	port := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 API Server starting on port %s", port)
		log.Printf("📍 Health check: http://localhost%s/health", port)
		log.Printf("🌍 Environment: %s", cfg.Env)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	c.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	// Stop drain loops after the listener closed so no new batches arrive
	queueSvc.Shutdown()

	log.Println("✅ Server stopped")
}
