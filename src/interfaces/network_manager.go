package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests against the backend.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with an already encoded query.
	// Returns the response body as bytes or a typed error (NetworkError, HTTPError).
	Get(ctx context.Context, url string, rawQuery string) ([]byte, error)
}
