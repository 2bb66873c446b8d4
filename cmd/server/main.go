package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/basel-ax/genrelay/internal/config"
	"github.com/basel-ax/genrelay/internal/infrastructure/gemini"
	"github.com/basel-ax/genrelay/internal/logging"
	"github.com/basel-ax/genrelay/internal/metrics"
	"github.com/basel-ax/genrelay/internal/repository"
	"github.com/basel-ax/genrelay/internal/server"
	"github.com/basel-ax/genrelay/internal/service"
	"github.com/basel-ax/genrelay/internal/upload"
)

func main() {
	// Parse command line flags
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	sweepOnStart := flag.Bool("sweep", true, "Remove stale uploads once at startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logCloser, err := logging.Setup(level, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer logCloser.Close()
	log.Debug("Verbose logging enabled")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Infof("Received signal: %v, initiating shutdown...", sig)
		cancel()
	}()

	requests, closeDB := openLedger(ctx, cfg)
	defer closeDB()

	log.Infof("Initializing Gemini client for model %s...", cfg.GeminiModel)
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	svc := service.NewGenerationService(cfg, client, requests)

	store, err := upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Failed to prepare upload dir: %v", err)
	}

	m := metrics.New()
	janitor, err := upload.NewJanitor(store, cfg.UploadSweepSchedule, cfg.UploadMaxAge, m.AddSwept)
	if err != nil {
		log.Fatalf("Failed to schedule upload sweeper: %v", err)
	}
	if *sweepOnStart {
		janitor.RunOnce()
	}
	janitor.Start()
	defer func() { <-janitor.Stop().Done() }()

	if err := server.New(cfg, svc, store, m).Run(ctx); err != nil {
		log.Errorf("Server stopped: %v", err)
		return
	}
	log.Info("Shutting down gracefully...")
}

// openLedger connects the request ledger when a database is configured and
// falls back to a no-op ledger otherwise.
func openLedger(ctx context.Context, cfg *config.Config) (repository.RequestRepository, func()) {
	if !cfg.LedgerEnabled() {
		log.Info("DB_HOST not set, request ledger disabled")
		return repository.NopRequestRepository{}, func() {}
	}

	log.Info("Initializing database connection...")
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	repo := repository.NewPostgresRequestRepository(db)
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		_ = db.Close()
		log.Fatalf("Failed to prepare request ledger: %v", err)
	}
	log.Info("Database connection established")
	return repo, func() { _ = db.Close() }
}
