package views

import (
	"fmt"
	"strconv"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"
)

type SummaryView struct {
	base
}

func NewSummaryView(sink interfaces.IViewSink) *SummaryView {
	return &SummaryView{base: newBase(models.ViewSummary, sink)}
}

// -----------------------------------------------------------------------------

func (v *SummaryView) Render(stats models.MSummaryStats) {
	state := models.MSummaryViewState{
		Total:      strconv.Itoa(stats.Total),
		Largest:    Placeholder,
		MostRecent: Placeholder,
	}
	if stats.Largest != nil {
		state.Largest = fmt.Sprintf("%.1f", *stats.Largest)
	}
	if stats.MostRecent != nil {
		state.MostRecent = fmt.Sprintf("%s (%s)", stats.MostRecent.Locality, stats.MostRecent.Time)
	}
	v.publish(state)
}

func (v *SummaryView) RenderPayload(payload interface{}) error {
	stats, ok := payload.(models.MSummaryStats)
	if !ok {
		return payloadError(v.name, "MSummaryStats", payload)
	}
	v.Render(stats)
	return nil
}

// RenderEmpty shows placeholders only, no count.
func (v *SummaryView) RenderEmpty() {
	v.publish(models.MSummaryViewState{Total: Placeholder, Largest: Placeholder, MostRecent: Placeholder})
}

func (v *SummaryView) State() (models.MSummaryViewState, bool) {
	s, ok := v.current().(models.MSummaryViewState)
	return s, ok
}
