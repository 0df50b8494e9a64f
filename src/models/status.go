package models

import "time"

// MEndpointReport is the controller's view of one endpoint pipeline.
type MEndpointReport struct {
	Endpoint       Endpoint        `json:"endpoint"`
	State          EndpointState   `json:"state"`
	LatestSequence uint64          `json:"latest_sequence"`
	Rendered       bool            `json:"rendered"`
	LastError      string          `json:"last_error,omitempty"`
	Applied        int             `json:"applied"`
	Superseded     int             `json:"superseded"`
	Failed         int             `json:"failed"`
	LatencyMeanMs  float64         `json:"latency_mean_ms"`
	LatencyStdMs   float64         `json:"latency_std_ms"`
	Recent         []MFetchOutcome `json:"recent"`
}

// MSessionStatus summarizes one live dashboard session.
type MSessionStatus struct {
	SessionID   string            `json:"session_id"`
	Filter      MFilterSnapshot   `json:"filter"`
	Query       string            `json:"query"`
	Cycles      int               `json:"cycles"`
	LastRefresh time.Time         `json:"last_refresh"`
	Endpoints   []MEndpointReport `json:"endpoints"`
}
