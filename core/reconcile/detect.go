package reconcile

import (
	"sort"

	"locksync/core/booking"
)

// Detect compares two snapshots and classifies every difference. It is
// pure: no I/O, and neither snapshot is mutated.
//
// Classification of a modified booking is decided on the end instant
// alone: strictly later means Extension, anything else means DateChange.
// A start-only shift is still a DateChange, never ignored, because the
// active code window moved and must be re-provisioned.
func Detect(previous, current booking.Snapshot) ChangeSet {
	var cs ChangeSet

	// Cancellations: in previous, gone from current.
	for _, id := range sortedKeys(previous) {
		if _, ok := current[id]; !ok {
			cs.Cancellations = append(cs.Cancellations, previous[id])
		}
	}

	// New bookings and modifications.
	for _, id := range sortedKeys(current) {
		cur := current[id]
		prev, ok := previous[id]
		if !ok {
			cs.NewBookings = append(cs.NewBookings, cur)
			continue
		}

		if prev.Start.Equal(cur.Start) && prev.End.Equal(cur.End) {
			continue
		}

		ch := Change{Before: prev, After: cur}
		if cur.End.After(prev.End) {
			cs.Extensions = append(cs.Extensions, ch)
		} else {
			cs.DateChanges = append(cs.DateChanges, ch)
		}
	}

	return cs
}

// sortedKeys returns snapshot keys in ascending order for deterministic
// output.
func sortedKeys(s booking.Snapshot) []string {
	keys := make([]string, 0, len(s))
	for id := range s {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
