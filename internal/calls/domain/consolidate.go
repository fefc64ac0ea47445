package domain

import (
	"sort"
	"time"
)

// reRingThreshold separates a genuine repeat signal (a new ring attempt in
// the same session) from near-duplicate noise of the same type.
const reRingThreshold = 50 * time.Millisecond

// Consolidate reduces a session's raw event log to its canonical timeline.
// The input is copied and stable-sorted by timestamp, then folded: a
// same-type successor replaces the previous entry when it adds a duration,
// is kept as a distinct occurrence when it lands more than reRingThreshold
// later, and is dropped otherwise. Different-type successors are always kept.
// The input slice is never mutated.
func Consolidate(events []RawEvent) []RawEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]RawEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := []RawEvent{sorted[0]}
	for _, ev := range sorted[1:] {
		last := out[len(out)-1]

		if ev.Outcome != last.Outcome {
			out = append(out, ev)
			continue
		}

		switch {
		case !last.HasDuration() && ev.HasDuration():
			// Same signal, but this one carries the authoritative duration.
			out[len(out)-1] = ev
		case ev.Timestamp.Sub(last.Timestamp) > reRingThreshold:
			out = append(out, ev)
		default:
			// near-duplicate noise
		}
	}
	return out
}

// LatestDuration scans a consolidated timeline in reverse for the most recent
// entry carrying a duration. The second return is false when none exists.
func LatestDuration(events []RawEvent) (int, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].HasDuration() {
			return *events[i].Duration, true
		}
	}
	return 0, false
}
