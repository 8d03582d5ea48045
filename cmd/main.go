package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"medialog/scheduler"
	"medialog/server"
	"medialog/storage"
	"medialog/store"
)

func main() {
	// Initialize storage
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "./data"
	}

	// Initialize logger with timestamp
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting MediaLog application...")

	// Initialize storage
	sqliteStorage := storage.NewSQLiteStorage(dataPath)
	if err := sqliteStorage.Initialize(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer sqliteStorage.Close()

	// Hydrate the in-memory library from disk
	st := store.New(sqliteStorage)
	displayLibraryStats(st)

	runMode := os.Getenv("RUN_MODE")
	digestJob := scheduler.NewDigestJob(st)

	if runMode == "server" || runMode == "" {
		log.Println("Starting in server mode")

		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" {
			httpAddr = ":8080"
		}

		srv := server.New(st, httpAddr)
		go func() {
			log.Printf("HTTP server listening on %s", httpAddr)
			if err := srv.Start(); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()

		// Schedule the weekly digest
		sched := scheduler.NewScheduler()
		if err := sched.AddWeeklyJob(digestJob); err != nil {
			log.Fatalf("Failed to schedule digest job: %v", err)
		}
		sched.Start()
		log.Println("Scheduler started. Digest will be sent every Sunday at 6:00 PM")

		// Run the job once at startup if specified
		if os.Getenv("RUN_AT_STARTUP") == "true" {
			log.Println("Running initial digest at startup")
			if err := sched.RunJobNow(digestJob.Name()); err != nil {
				log.Printf("Error running initial job: %v", err)
			}
		}

		// Set up signal handling for graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		log.Println("Application running. Press Ctrl+C to exit")

		// Wait for termination signal
		sig := <-quit
		log.Printf("Received signal %s, shutting down...", sig)

		// Gracefully stop the scheduler and drain the HTTP server
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

	} else if runMode == "digest-once" {
		log.Println("Running in single digest mode")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := digestJob.Run(ctx); err != nil {
			log.Fatalf("Error running digest job: %v", err)
		}
	} else {
		log.Fatalf("Unknown RUN_MODE %q, expected server or digest-once", runMode)
	}

	log.Println("Application exiting")
}

// displayLibraryStats shows library statistics
func displayLibraryStats(st *store.Store) {
	stats := st.Stats()

	log.Println("Library Statistics")
	log.Printf("Total content: %d", stats["total"])
	log.Printf("Watched: %d", stats["watched"])
	log.Printf("Movies: %d", stats["movies"])
	log.Printf("Series: %d", stats["series"])
	log.Printf("Documentaries: %d", stats["documentaries"])
	log.Printf("Podcasts: %d", stats["podcasts"])
	log.Printf("Playlists: %d", stats["playlists"])

	items := st.Items()
	limit := 5
	if len(items) < limit {
		limit = len(items)
	}

	if limit > 0 {
		log.Printf("Recent Content (last %d):", limit)
		for i := len(items) - limit; i < len(items); i++ {
			item := items[i]
			log.Printf("- %s [%s] - %s", item.Title, item.Type, item.Platform)
		}
	}
}
