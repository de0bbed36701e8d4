package dataset

import "time"

// EventKind names a store mutation.
type EventKind string

const (
	EventLoaded      EventKind = "loaded"
	EventCellUpdated EventKind = "cell_updated"
	EventRowDeleted  EventKind = "row_deleted"
	EventRowAdded    EventKind = "row_added"
	EventReset       EventKind = "reset"
)

// Event describes a mutation that has already been applied to the store.
type Event struct {
	Kind   EventKind
	Row    int    // affected row, -1 when the whole table changed
	Column string // set for cell updates only
	Rows   int    // row count after the mutation
	At     time.Time
}

// Light reports whether dependent views can re-bind their data in place
// instead of rebuilding. Only single-cell edits are light.
func (e Event) Light() bool { return e.Kind == EventCellUpdated }

// Observer receives store events in mutation order.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
