package trigger

import "sync/atomic"

// Holder is a table's single swappable reference to its current
// trigger: readers load it with Current and never see a torn or
// half-replaced trigger (spec.md invariant 8, "no operation observes a
// trigger midway through mutation"); writers replace it wholesale with
// Replace.
type Holder struct {
	ptr atomic.Pointer[Trigger]
}

// NewHolder builds a Holder already carrying initial (which may itself
// be nil, meaning "no trigger installed").
func NewHolder(initial *Trigger) *Holder {
	h := &Holder{}
	h.ptr.Store(initial)
	return h
}

// Current returns the trigger in effect right now. It may be nil.
func (h *Holder) Current() *Trigger {
	return h.ptr.Load()
}

// Replace installs next as the current trigger. If a trigger was
// already installed, it is first disabled and drained — any reader
// that had already acquired its shared lock is allowed to finish its
// operation under the old trigger, and no reader that loads Current
// after this call can observe it, since the pointer swap only happens
// once the drain completes.
func (h *Holder) Replace(next *Trigger) {
	if old := h.ptr.Load(); old != nil {
		old.disable()
	}
	h.ptr.Store(next)
}
