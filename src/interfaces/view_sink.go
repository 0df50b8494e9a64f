package interfaces

import "quake-observer/src/models"

// -----------------------------------------------------------------------------
// IViewSink receives rendered view state for one dashboard session.
// -----------------------------------------------------------------------------

type IViewSink interface {
	Publish(update models.MViewUpdate)
}

// -----------------------------------------------------------------------------
// IOutcomeReporter receives the diagnostics stream of a session.
// -----------------------------------------------------------------------------

type IOutcomeReporter interface {
	RecordOutcome(outcome models.MFetchOutcome)
	RecordFilterChange(change models.MFilterChange)
}

// -----------------------------------------------------------------------------
// IViewAdapter renders one endpoint payload into its view.
// -----------------------------------------------------------------------------

type IViewAdapter interface {
	Name() string

	// RenderPayload type-checks payload and renders it, replacing prior output.
	RenderPayload(payload interface{}) error

	// RenderEmpty shows the view's empty state.
	RenderEmpty()
}
