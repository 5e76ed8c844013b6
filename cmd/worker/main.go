package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"staffhub/internal/config"
	"staffhub/internal/drive"
	"staffhub/internal/folders"
	"staffhub/internal/lock"
	"staffhub/internal/repository"
)

// The worker owns the scheduled database and drive maintenance: counter
// resets and the duplicate-folder sweep. Queue cleanup runs in the API
// process because the queues live in its memory.
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

	// Repositories
	tenantRepo := repository.NewTenantRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	// The sweep is the only folder operation here and this is a single
	// process, so the in-memory locker is enough
	storage := drive.NewClient(cfg.Drive.BaseURL, cfg.Drive.AccessToken, cfg.Drive.Timeout)
	folderSvc := folders.NewService(folderRepo, employeeRepo, tenantRepo, storage, lock.NewMemoryLocker(), cfg.Queue.LockTimeout)
	log.Println("✅ Services initialized")

	// Schedule maintenance jobs
	c := cron.New()

	// Daily counter reset at midnight
	_, err = c.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rows, err := tenantRepo.ResetDailyCounters(ctx)
		if err != nil {
			log.Printf("❌ Daily counter reset failed: %v", err)
			return
		}
		log.Printf("✅ Daily counters reset for %d tenants", rows)
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily reset: %v", err)
	}

	// Monthly counter reset on the 1st
	_, err = c.AddFunc("0 0 1 * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rows, err := tenantRepo.ResetMonthlyCounters(ctx)
		if err != nil {
			log.Printf("❌ Monthly counter reset failed: %v", err)
			return
		}
		log.Printf("✅ Monthly counters reset for %d tenants", rows)
	})
	if err != nil {
		log.Fatalf("Failed to schedule monthly reset: %v", err)
	}

	// Weekly duplicate-folder sweep, Sunday 03:00
	_, err = c.AddFunc("0 3 * * 0", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := folderSvc.CleanupDuplicates(ctx)
		if err != nil {
			log.Printf("❌ Duplicate folder sweep failed: %v", err)
			return
		}
		log.Printf("✅ Duplicate folder sweep: %d groups, %d removed, %d errors",
			result.Groups, result.Removed, result.Errors)
	})
	if err != nil {
		log.Fatalf("Failed to schedule duplicate sweep: %v", err)
	}

	c.Start()
	log.Printf("🚀 Maintenance worker started with %d scheduled jobs", len(c.Entries()))

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	// Let an in-flight job finish before exiting
	<-c.Stop().Done()

	log.Println("✅ Worker stopped")
}
