package main

import (
	"quake-observer/src/dashboard"
	"quake-observer/src/data_source/backend"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/network"
	"quake-observer/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the diagnostics journal. Returns nil when storage is disabled.
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	var err error

	switch config.Storage.DBType {
	case "none":
		appLogger.Info("Journal disabled")
		return nil, nil
	case "postgres":
		db, err = storage.NewPostgresDB(config, logger.NewLogger(config, "PostgresDB"))
	default:
		db, err = storage.NewAsyncSQLiteDB(config, logger.NewLogger(config, "SQLiteDB"))
	}

	if err != nil {
		appLogger.Error("Failed to init db: %v", err)
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		appLogger.Error("Failed to migrate db: %v", err)
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the backend HTTP client shared by all sessions
func setupNetwork(config *models.MConfig) (interfaces.INetworkManager, error) {
	return network.NewAsyncNetworkManager(config, logger.NewLogger(config, "NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupRegistry builds the session registry. Each session gets its own backend
// source, hence its own sequence counters.
func setupRegistry(config *models.MConfig, netMgr interfaces.INetworkManager, reporter interfaces.IOutcomeReporter) *dashboard.Registry {
	backendLogger := logger.NewLogger(config, "Backend")
	newFetcher := func(sessionID string) interfaces.IDataFetcher {
		return backend.NewSource(config, netMgr, backendLogger)
	}
	return dashboard.NewRegistry(config, newFetcher, reporter, logger.NewLogger(config, "Sessions"))
}
