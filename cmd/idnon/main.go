package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thewages75-crypto/idnon/internal/bot"
	"github.com/thewages75-crypto/idnon/internal/config"
	"github.com/thewages75-crypto/idnon/internal/db"
	"github.com/thewages75-crypto/idnon/internal/delivery"
	"github.com/thewages75-crypto/idnon/internal/filter"
	"github.com/thewages75-crypto/idnon/internal/policy"
	"github.com/thewages75-crypto/idnon/internal/relay"
	"github.com/thewages75-crypto/idnon/internal/transport"
	"github.com/thewages75-crypto/idnon/internal/transport/wire"
	"github.com/thewages75-crypto/idnon/internal/user"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting idnon relay (moderator: %d)", cfg.Moderation.ModeratorID)

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.Paths.Data, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Open database
	database, err := db.Open(cfg.Paths.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	log.Printf("Database opened: %s", cfg.Paths.Database)

	// Create repositories
	userRepo := user.NewRepo(database.DB)
	wordRepo := filter.NewRepo(database.DB)
	deliveryRepo := delivery.NewRepo(database.DB)

	// Optional Lua filter hook
	var script *filter.Script
	if cfg.Paths.FilterScript != "" {
		script, err = filter.LoadScript(cfg.Paths.FilterScript)
		if err != nil {
			log.Fatalf("Failed to load filter script: %v", err)
		}
		defer script.Close()
		log.Printf("Filter script loaded: %s", cfg.Paths.FilterScript)
	}

	engine := policy.NewEngine(userRepo, wordRepo, script, cfg.Moderation)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The wire server and the fan-out reference each other, so the
	// server is created first with the service wired in afterwards.
	var svc *bot.Service
	server := wire.NewServer(cfg.Server.RelayPort, cfg.Moderation.ModeratorID,
		database.ModeratorPassHash, func(msg transport.Message) {
			svc.HandleUpdate(msg)
		})

	fanout := relay.NewFanout(server, userRepo, deliveryRepo,
		cfg.Relay.MediaChunkSize, cfg.Relay.SendDelay())
	worker := relay.NewWorker(cfg.Relay.QueueSize, fanout.Deliver)
	svc = bot.New(server, database, userRepo, wordRepo, deliveryRepo,
		engine, worker, fanout, cfg)

	go worker.Run(ctx)

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("Relay server error: %v", err)
		}
	}()

	// Periodic inactivity sweep
	go func() {
		ticker := time.NewTicker(cfg.Moderation.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := engine.Sweep(time.Now())
				if err != nil {
					log.Printf("Sweep error: %v", err)
				} else if n > 0 {
					log.Printf("Sweep marked %d users inactive", n)
				}
			}
		}
	}()

	// --- Health server ---
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Health server error: %v", err)
		}
	}()

	// --- Graceful shutdown ---
	fmt.Println("\nidnon is running")
	fmt.Printf("  Relay:  port %d\n", cfg.Server.RelayPort)
	fmt.Printf("  Health: port %d\n", cfg.Server.HealthPort)
	fmt.Println("\nPress Ctrl+C to shut down.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal %v, shutting down...", sig)

	cancel()
	svc.Aggregator().Stop()

	log.Printf("idnon shut down complete.")
}
