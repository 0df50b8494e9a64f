package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quake-observer/src/config"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/server"
	"quake-observer/src/storage"
)

const shutdownTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Journal
	db, err := setupDatabase(conf.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}
	var reporter interfaces.IOutcomeReporter
	var recorder *storage.Recorder
	if db != nil {
		recorder = storage.NewRecorder(db, logger.NewLogger(conf.MConfig, "Recorder"))
		recorder.Start(ctx)
		reporter = recorder
	}

	// 5. Backend client and sessions
	networkManager, err := setupNetwork(conf.MConfig)
	if err != nil {
		appLogger.Critical("Failed to init network manager: %v", err)
	}
	registry := setupRegistry(conf.MConfig, networkManager, reporter)

	// 6. Servers
	srv := server.NewDashboardServer(conf.MConfig, registry, logger.NewLogger(conf.MConfig, "DashboardServer"))
	grpcServer := startServers(ctx, srv, registry, conf, appLogger)

	// 7. Wait for a signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warning("Dashboard shutdown: %v", err)
	}
	if recorder != nil {
		recorder.Stop()
		if dropped := recorder.Dropped(); dropped > 0 {
			appLogger.Warning("%d journal records were dropped", dropped)
		}
	}
	if db != nil {
		db.Close()
	}
	appLogger.Info("Shutdown complete.")
}
