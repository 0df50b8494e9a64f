package interfaces

import (
	"context"

	"quake-observer/src/models"
)

// -----------------------------------------------------------------------------
// IDataFetcher issues sequence-tagged requests against the earthquake backend.
// -----------------------------------------------------------------------------

type IDataFetcher interface {

	// Issue allocates the next sequence number for endpoint. No network I/O.
	Issue(endpoint models.Endpoint, descriptor models.MQueryDescriptor) models.MRequestTicket

	// -----------------------------------------------------------------------------

	// Fetch performs the request for ticket and decodes the endpoint payload:
	// []models.MEarthquakeRecord, models.MSummaryStats or models.MChartDataset.
	Fetch(ctx context.Context, ticket models.MRequestTicket) (interface{}, error)

	// -----------------------------------------------------------------------------

	// IsLatest reports whether ticket is the most recently issued for its endpoint.
	IsLatest(ticket models.MRequestTicket) bool
}
