package views

import (
	"fmt"
	"sync"
	"time"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"
)

// Placeholder shown for values the backend did not provide.
const Placeholder = "—"

// -----------------------------------------------------------------------------
// base holds what every adapter shares: its name, its sink and the last state
// it published.
// -----------------------------------------------------------------------------

type base struct {
	name  string
	sink  interfaces.IViewSink
	mu    sync.Mutex
	state interface{}
	now   func() time.Time
}

func newBase(name string, sink interfaces.IViewSink) base {
	return base{name: name, sink: sink, now: time.Now}
}

// -----------------------------------------------------------------------------

func (b *base) Name() string {
	return b.name
}

// -----------------------------------------------------------------------------

// publish replaces the stored state and pushes it to the sink.
func (b *base) publish(state interface{}) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()

	if b.sink == nil {
		return
	}
	b.sink.Publish(models.MViewUpdate{
		Type:      models.UpdateTypeView,
		View:      b.name,
		Payload:   state,
		Timestamp: b.now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// current returns the last published state, or nil before the first render.
func (b *base) current() interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// -----------------------------------------------------------------------------

func payloadError(view string, want string, got interface{}) error {
	return fmt.Errorf("%s view expects %s, got %T", view, want, got)
}
