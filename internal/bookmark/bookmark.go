// Package bookmark maintains the two independent row selections (one per
// view) that survive re-parsing and re-filtering. Entries are keyed by
// parse-pass identities, never by row handles, so a selection can be
// persisted as a plain identity list and rebuilt after a reload.
package bookmark

import (
	"sort"

	"github.com/agergec/spantrace/internal/model"
)

// View selects one of the two independent bookmark sets.
type View int

const (
	ViewSip View = iota
	ViewKazimir
	viewCount
)

// ViewFromName maps the wire names used by the frontend and the saved-log
// store to a View. ok is false for unknown names.
func ViewFromName(name string) (View, bool) {
	switch name {
	case "sip":
		return ViewSip, true
	case "kazimir":
		return ViewKazimir, true
	default:
		return 0, false
	}
}

// Entry is one bookmarked row.
type Entry struct {
	Identity    int    `json:"identity"`
	Timestamp   int64  `json:"timestamp"`
	DisplayTime string `json:"displayTime"`
}

// Step is one element of the step-delta sequence shown next to bookmarks:
// the gap to the previous bookmark and the cumulative gap from the first.
type Step struct {
	Entry
	Gap        *int64 `json:"gap,omitempty"` // nil for the first bookmark
	Cumulative int64  `json:"cumulative"`
}

// Tracker holds both views' ordered selections.
type Tracker struct {
	sets [viewCount][]Entry
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Toggle adds the identity to the view's set, or removes it if already
// present. After an insert the set is re-sorted by timestamp (ties by
// identity) so step deltas stay well-formed regardless of click order.
// Returns true if the identity is selected after the call.
func (t *Tracker) Toggle(v View, identity int, timestamp int64) bool {
	set := t.sets[v]
	for i, e := range set {
		if e.Identity == identity {
			t.sets[v] = append(set[:i], set[i+1:]...)
			return false
		}
	}

	set = append(set, Entry{
		Identity:    identity,
		Timestamp:   timestamp,
		DisplayTime: model.FormatClock(timestamp),
	})
	sortEntries(set)
	t.sets[v] = set
	return true
}

func sortEntries(set []Entry) {
	sort.SliceStable(set, func(i, j int) bool {
		if set[i].Timestamp != set[j].Timestamp {
			return set[i].Timestamp < set[j].Timestamp
		}
		return set[i].Identity < set[j].Identity
	})
}

// Entries returns the view's selection ordered by timestamp.
func (t *Tracker) Entries(v View) []Entry {
	out := make([]Entry, len(t.sets[v]))
	copy(out, t.sets[v])
	return out
}

// Identities returns the plain identity list persisted with a saved log,
// in timestamp order.
func (t *Tracker) Identities(v View) []int {
	ids := make([]int, 0, len(t.sets[v]))
	for _, e := range t.sets[v] {
		ids = append(ids, e.Identity)
	}
	return ids
}

// Steps returns the step-delta sequence for display.
func (t *Tracker) Steps(v View) []Step {
	set := t.sets[v]
	steps := make([]Step, 0, len(set))
	for i, e := range set {
		s := Step{Entry: e}
		if i > 0 {
			gap := e.Timestamp - set[i-1].Timestamp
			s.Gap = &gap
			s.Cumulative = e.Timestamp - set[0].Timestamp
		}
		steps = append(steps, s)
	}
	return steps
}

// Clear empties one view's selection.
func (t *Tracker) Clear(v View) {
	t.sets[v] = nil
}

// Restore rebuilds a view's selection from a persisted identity list.
// resolve maps an identity to its timestamp in the current parse pass;
// identities it cannot resolve are dropped silently (the text changed).
func (t *Tracker) Restore(v View, identities []int, resolve func(identity int) (int64, bool)) {
	var set []Entry
	for _, id := range identities {
		ts, ok := resolve(id)
		if !ok {
			continue
		}
		set = append(set, Entry{
			Identity:    id,
			Timestamp:   ts,
			DisplayTime: model.FormatClock(ts),
		})
	}
	sortEntries(set)
	t.sets[v] = set
}
