package interfaces

import "quake-observer/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the diagnostics journal.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveFilterChanges inserts a batch of applied filter updates.
	SaveFilterChanges(changes []models.MFilterChange) error

	// -----------------------------------------------------------------------------

	// SaveFetchOutcomes inserts a batch of fetch outcomes.
	SaveFetchOutcomes(outcomes []models.MFetchOutcome) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
