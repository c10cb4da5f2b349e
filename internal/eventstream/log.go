// Package eventstream is the append-only, id-stamped event log carried in
// every match state.
//
// Ids are assigned from a counter stored alongside the entries, so
// truncating old entries never causes an id to be reused. Clients use ids
// as cursors ("everything after 41") to decide what still needs animating.
package eventstream

import "github.com/roach88/turnstile/internal/game"

// Entry is one logged event.
type Entry struct {
	ID    int64      `json:"id"`
	Event game.Event `json:"event"`
}

// Log is an append-only sequence of entries.
//
// Log is a value type; Append returns nothing and mutates the receiver, so
// callers holding a copy of a MatchState must Clone before appending.
type Log struct {
	Entries []Entry `json:"entries"`
	NextID  int64   `json:"next_id"`
}

// Append stamps events with fresh ids and returns them in order.
func (l *Log) Append(events ...game.Event) []int64 {
	if len(events) == 0 {
		return nil
	}
	if l.NextID == 0 {
		l.NextID = 1
	}
	ids := make([]int64, len(events))
	for i, ev := range events {
		ids[i] = l.NextID
		l.Entries = append(l.Entries, Entry{ID: l.NextID, Event: ev})
		l.NextID++
	}
	return ids
}

// EntriesSince returns entries with id strictly greater than cursor.
// The returned slice is a copy.
func (l Log) EntriesSince(cursor int64) []Entry {
	i := l.indexAfter(cursor)
	if i == len(l.Entries) {
		return nil
	}
	return append([]Entry(nil), l.Entries[i:]...)
}

// EntriesThrough returns entries with id less than or equal to cursor.
func (l Log) EntriesThrough(cursor int64) []Entry {
	i := l.indexAfter(cursor)
	if i == 0 {
		return nil
	}
	return append([]Entry(nil), l.Entries[:i]...)
}

// indexAfter returns the index of the first entry with id > cursor.
// Entries are sorted by id, so binary search applies.
func (l Log) indexAfter(cursor int64) int {
	lo, hi := 0, len(l.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.Entries[mid].ID <= cursor {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Truncate keeps only the newest max entries. NextID is preserved.
func (l *Log) Truncate(max int) {
	if max < 0 {
		max = 0
	}
	if len(l.Entries) <= max {
		return
	}
	l.Entries = append([]Entry(nil), l.Entries[len(l.Entries)-max:]...)
}

// LastID returns the id of the newest entry ever appended, or 0.
func (l Log) LastID() int64 {
	if l.NextID == 0 {
		return 0
	}
	return l.NextID - 1
}

// Len returns the number of retained entries.
func (l Log) Len() int { return len(l.Entries) }

// Clone returns a log that shares no backing array with l.
func (l Log) Clone() Log {
	return Log{
		Entries: append([]Entry(nil), l.Entries...),
		NextID:  l.NextID,
	}
}

// Events returns the retained events without their ids.
func (l Log) Events() []game.Event {
	out := make([]game.Event, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Event
	}
	return out
}

// Types returns the retained event types in order, mostly for assertions.
func (l Log) Types() []game.EventType {
	out := make([]game.EventType, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Event.Type()
	}
	return out
}
