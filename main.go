package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/rivulet/traceledger/config"
	"github.com/rivulet/traceledger/ledger"
	"github.com/rivulet/traceledger/repository"
	"github.com/rivulet/traceledger/server"
	service_registry "github.com/rivulet/traceledger/srvreg"
)

var (
	configPath   string
	httpPort     string
	dataDir      string
	postgresHost string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to a TOML config file")
	flag.StringVar(&httpPort, "http-port", "", "HTTP web server port (overrides config)")
	flag.StringVar(&dataDir, "data-dir", "", "Ledger data directory (overrides config)")
	flag.StringVar(&postgresHost, "postgres-host", "", "DB host address (overrides config)")
}

func main() {
	// Load Config
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	if httpPort != "" {
		cfg.HTTPPort = httpPort
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if postgresHost != "" {
		cfg.Postgres.Enabled = true
		cfg.Postgres.Host = postgresHost
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))

	// Connect the relational mirror when configured
	var mirror ledger.Mirror
	var repo *repository.Repository
	if cfg.Postgres.Enabled {
		repo = repository.NewRepository(logger)
		logger.Info("Connecting to Postgres", "host", cfg.Postgres.Host)
		if err := repo.ConnectDB(cfg.Postgres.DSN()); err != nil {
			log.Fatalf("Connecting to Postgres: %v", err)
		}
		if err := repo.Migrate(); err != nil {
			log.Fatalf("Migrating mirror tables: %v", err)
		}
		mirror = repo
	}

	// Open the ledger
	ldgr, err := ledger.Open(ledger.Config{Dir: cfg.DataDir, NoSync: cfg.NoSync, Mirror: mirror}, logger)
	if err != nil {
		log.Fatalf("Opening ledger: %v", err)
	}
	defer func() {
		if err := ldgr.Close(); err != nil {
			logger.Error("Closing ledger", "err", err)
		}
	}()

	// Initialize Service Registry
	serviceRegistry := service_registry.NewServiceRegistry(ldgr, repo, logger)
	serviceRegistry.RegisterDefaultServices()

	// Start Web Server
	webServer := server.NewWebServer(cfg.HTTPPort, logger, serviceRegistry)
	if err := webServer.Start(); err != nil {
		log.Fatalf("Starting web server: %v", err)
	}

	// Wait for interruption signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(ctx); err != nil {
		logger.Error("Web server shutdown", "err", err)
	}
}
