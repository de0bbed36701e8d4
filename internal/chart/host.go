package chart

import "errors"

var (
	// ErrReleased is returned by handles that were released.
	ErrReleased = errors.New("chart handle released")
	ErrNoChart  = errors.New("no chart")
)

// Handle is a live chart. It stays valid until its Host releases it.
type Handle struct {
	id       int
	spec     Spec
	released bool
}

func (h *Handle) ID() int { return h.id }

func (h *Handle) Released() bool { return h.released }

// Spec returns a copy of the data currently bound to the handle.
func (h *Handle) Spec() (Spec, error) {
	if h.released {
		return Spec{}, ErrReleased
	}
	return h.spec.clone(), nil
}

// Host owns at most one live handle per chart slot.
type Host struct {
	cur    *Handle
	nextID int
}

// Acquire releases the current handle, if any, and creates one for spec.
func (h *Host) Acquire(spec Spec) *Handle {
	h.Release()
	h.nextID++
	h.cur = &Handle{id: h.nextID, spec: spec.clone()}
	return h.cur
}

// Rebind swaps the data arrays of the live handle in place.
func (h *Host) Rebind(labels []string, values []float64) error {
	if h.cur == nil {
		return ErrNoChart
	}
	h.cur.spec.Labels = append([]string(nil), labels...)
	h.cur.spec.Values = append([]float64(nil), values...)
	return nil
}

func (h *Host) Release() {
	if h.cur != nil {
		h.cur.released = true
		h.cur = nil
	}
}

// Current returns the live handle or nil.
func (h *Host) Current() *Handle { return h.cur }
