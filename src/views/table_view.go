package views

import (
	"fmt"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"
)

// Magnitude classes shown in the table
const (
	ClassMinor       = "minor"
	ClassMinimalRisk = "minimal risk"
	ClassAlert       = "alert"
)

// ClassifyMagnitude buckets an event by felt impact.
func ClassifyMagnitude(magnitude float64) string {
	switch {
	case magnitude <= 2.5:
		return ClassMinor
	case magnitude <= 5.4:
		return ClassMinimalRisk
	default:
		return ClassAlert
	}
}

// -----------------------------------------------------------------------------
// TableView
// -----------------------------------------------------------------------------

type TableView struct {
	base
}

func NewTableView(sink interfaces.IViewSink) *TableView {
	return &TableView{base: newBase(models.ViewTable, sink)}
}

// -----------------------------------------------------------------------------

// Render lists records in backend order, numbered from 1.
func (v *TableView) Render(records []models.MEarthquakeRecord) {
	rows := make([]models.MTableRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, models.MTableRow{
			Number:    i + 1,
			Magnitude: fmt.Sprintf("%.2f", r.Magnitude),
			Depth:     fmt.Sprintf("%.1f", r.Depth),
			Time:      r.Time,
			Locality:  r.Locality,
			Class:     ClassifyMagnitude(r.Magnitude),
		})
	}
	v.publish(models.MTableViewState{Rows: rows})
}

func (v *TableView) RenderPayload(payload interface{}) error {
	records, ok := payload.([]models.MEarthquakeRecord)
	if !ok {
		return payloadError(v.name, "[]MEarthquakeRecord", payload)
	}
	v.Render(records)
	return nil
}

func (v *TableView) RenderEmpty() {
	v.Render(nil)
}

func (v *TableView) State() (models.MTableViewState, bool) {
	s, ok := v.current().(models.MTableViewState)
	return s, ok
}
