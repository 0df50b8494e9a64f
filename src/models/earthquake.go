package models

import (
	"encoding/json"
	"fmt"
)

// MEarthquakeRecord is one event as returned by /api/earthquakes.
type MEarthquakeRecord struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Magnitude float64 `json:"magnitude"`
	Depth     float64 `json:"depth"`
	Locality  string  `json:"locality"`
	Time      string  `json:"time"` // opaque to the dashboard
}

// -----------------------------------------------------------------------------

// MSummaryStats is the /api/summary payload.
type MSummaryStats struct {
	Total      int          `json:"total"`
	Largest    *float64     `json:"largest"`
	MostRecent *MMostRecent `json:"most_recent"`
}

// MMostRecent is sent by the backend as a tuple: [locality, time, magnitude].
type MMostRecent struct {
	Locality  string
	Time      string
	Magnitude *float64
}

func (m *MMostRecent) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("most_recent must be an array: %w", err)
	}
	if len(tuple) < 2 || len(tuple) > 3 {
		return fmt.Errorf("most_recent must have 2 or 3 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &m.Locality); err != nil {
		return fmt.Errorf("most_recent locality: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &m.Time); err != nil {
		return fmt.Errorf("most_recent time: %w", err)
	}
	if len(tuple) == 3 {
		if err := json.Unmarshal(tuple[2], &m.Magnitude); err != nil {
			return fmt.Errorf("most_recent magnitude: %w", err)
		}
	}
	return nil
}

func (m MMostRecent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{m.Locality, m.Time, m.Magnitude})
}

// -----------------------------------------------------------------------------

// MagnitudeBucketLabels names the five magnitude_counts buckets.
var MagnitudeBucketLabels = [5]string{"M3–3.9", "M4–4.9", "M5–5.9", "M6–6.9", "M7+"}

// MChartDataset is the /api/charts payload.
type MChartDataset struct {
	TimeLabels      []string  `json:"time_labels"`
	TimeValues      []float64 `json:"time_values"`
	MagnitudeCounts []int     `json:"magnitude_counts"`
	TopCountries    []string  `json:"top_countries"`
	TopMagnitudes   []float64 `json:"top_mags"`
}

// Validate checks the structural invariants of a decoded dataset.
func (d MChartDataset) Validate() error {
	if len(d.TimeLabels) != len(d.TimeValues) {
		return fmt.Errorf("time_labels (%d) and time_values (%d) differ in length", len(d.TimeLabels), len(d.TimeValues))
	}
	if len(d.MagnitudeCounts) != len(MagnitudeBucketLabels) {
		return fmt.Errorf("magnitude_counts must have %d buckets, got %d", len(MagnitudeBucketLabels), len(d.MagnitudeCounts))
	}
	if len(d.TopCountries) != len(d.TopMagnitudes) {
		return fmt.Errorf("top_countries (%d) and top_mags (%d) differ in length", len(d.TopCountries), len(d.TopMagnitudes))
	}
	return nil
}
