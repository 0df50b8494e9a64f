package models

import "time"

// Endpoint identifies one dashboard data pipeline.
type Endpoint string

const (
	EndpointMap     Endpoint = "map"
	EndpointSummary Endpoint = "summary"
	EndpointTable   Endpoint = "table"
	EndpointCharts  Endpoint = "charts"
)

// AllEndpoints lists the pipelines in dispatch order.
var AllEndpoints = []Endpoint{EndpointMap, EndpointSummary, EndpointTable, EndpointCharts}

// Backend API paths
const (
	PathEarthquakes = "/api/earthquakes"
	PathSummary     = "/api/summary"
	PathCharts      = "/api/charts"
)

// Path returns the backend route serving this endpoint.
func (e Endpoint) Path() string {
	switch e {
	case EndpointSummary:
		return PathSummary
	case EndpointCharts:
		return PathCharts
	default:
		return PathEarthquakes
	}
}

// -----------------------------------------------------------------------------

// EndpointState is the per-endpoint refresh state machine.
type EndpointState string

const (
	StateIdle       EndpointState = "idle"
	StatePending    EndpointState = "pending"
	StateApplied    EndpointState = "applied"
	StateSuperseded EndpointState = "superseded"
	StateFailed     EndpointState = "failed"
)

// -----------------------------------------------------------------------------

// MRequestTicket tags one dispatched backend request.
type MRequestTicket struct {
	Endpoint   Endpoint         `json:"endpoint"`
	Sequence   uint64           `json:"sequence"`
	Descriptor MQueryDescriptor `json:"descriptor"`
	IssuedAt   time.Time        `json:"issued_at"`
}

// MFetchOutcome records how one ticket ended.
type MFetchOutcome struct {
	SessionID  string        `json:"session_id"`
	Endpoint   Endpoint      `json:"endpoint"`
	Sequence   uint64        `json:"sequence"`
	Query      string        `json:"query"`
	State      EndpointState `json:"state"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	HTTPStatus int           `json:"http_status,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

// MFilterChange is the analytics record of one applied filter update.
type MFilterChange struct {
	SessionID string          `json:"session_id"`
	Filter    MFilterSnapshot `json:"filter"`
	Query     string          `json:"query"`
	ChangedAt time.Time       `json:"changed_at"`
}
