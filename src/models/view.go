package models

// -----------------------------------------------------------------------------
// Messages pushed to dashboard clients
// -----------------------------------------------------------------------------

// Message types
const (
	UpdateTypeView   = "view"
	UpdateTypeStatus = "status"
	UpdateTypeFilter = "filter"
	UpdateTypeError  = "error"
)

// View names
const (
	ViewMap     = "map"
	ViewSummary = "summary"
	ViewTable   = "table"
	ViewCharts  = "charts"
)

type MViewUpdate struct {
	Type      string      `json:"type"`
	View      string      `json:"view,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// -----------------------------------------------------------------------------

type MMarker struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fill_color"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fill_opacity"`
	Popup       string  `json:"popup"`
}

type MMapViewState struct {
	Markers []MMarker `json:"markers"`
}

type MSummaryViewState struct {
	Total      string `json:"total"`
	Largest    string `json:"largest"`
	MostRecent string `json:"most_recent"`
}

type MTableRow struct {
	Number    int    `json:"number"`
	Magnitude string `json:"magnitude"`
	Depth     string `json:"depth"`
	Time      string `json:"time"`
	Locality  string `json:"locality"`
	Class     string `json:"class"`
}

type MTableViewState struct {
	Rows []MTableRow `json:"rows"`
}

type MChartViewState struct {
	TimeSeries         string `json:"time_series"`
	MagnitudeHistogram string `json:"magnitude_histogram"`
	TopLocalities      string `json:"top_localities"`
}

// MEndpointStatus drives the per-view error indicator.
type MEndpointStatus struct {
	Endpoint Endpoint      `json:"endpoint"`
	State    EndpointState `json:"state"`
	Sequence uint64        `json:"sequence"`
	Error    string        `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------
// Client commands
// -----------------------------------------------------------------------------

const (
	CommandFilter = "filter"
	CommandRetry  = "retry"
)

type MClientCommand struct {
	Command string `json:"command"`
	MFilterPatch
}
