package engine

// OnceSet remembers which keyed effects already ran during one invocation.
//
// Post-processing hooks see every batch of derived events. When two hooks
// (or two passes of the same hook) could react to the same event, the
// effect is keyed by subject and event ordinal and guarded with Once.
//
// Example:
//
//	CardCountered(#4) reaches the trigger system in batch 2
//	trigger draws a card, emitting CardDrawn(#6)
//	batch 3 re-offers the world to the trigger system
//	Once("draw-on-counter@4") is already recorded -> no second draw
//
// The set is created per Execute call and discarded afterwards; it is never
// persisted and never shared between invocations, so replays rebuild it
// identically.
//
// Thread-safety: not safe for concurrent use. Execute is single-threaded.
type OnceSet struct {
	seen map[string]bool
}

// NewOnceSet creates an empty set.
func NewOnceSet() *OnceSet {
	return &OnceSet{seen: make(map[string]bool)}
}

// Once records key and returns true the first time it is seen.
func (o *OnceSet) Once(key string) bool {
	if o.seen[key] {
		return false
	}
	o.seen[key] = true
	return true
}

// Seen reports whether key was recorded, without recording it.
func (o *OnceSet) Seen(key string) bool {
	return o.seen[key]
}

// Len returns the number of recorded keys.
// Used for testing and introspection.
func (o *OnceSet) Len() int {
	return len(o.seen)
}
