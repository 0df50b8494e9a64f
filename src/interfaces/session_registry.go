package interfaces

import "quake-observer/src/models"

// -----------------------------------------------------------------------------
// ISessionRegistry is the control surface over live dashboard sessions.
// -----------------------------------------------------------------------------

type ISessionRegistry interface {
	List() []models.MSessionStatus
	Status(id string) (models.MSessionStatus, error)
	UpdateFilter(id string, patch models.MFilterPatch) (models.MFilterSnapshot, error)
	Retry(id string) error
}
