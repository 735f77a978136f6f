// Package delta computes the three timing metrics of the analyzer:
//
//  1. per-key sequential delta, fixed once per parse pass
//  2. request-to-event round-trip delta via Reference-ID
//  3. cross-filter sequential delta over the currently visible subset
//
// Metric 3 is recomputed from scratch on every filter change and never
// reuses metric 1's values. Source logs are assumed monotonic within a
// correlation key; out-of-order input is undefined behaviour and deltas are
// emitted as-is, not clamped.
package delta

import "github.com/agergec/spantrace/internal/model"

// ComputeSequential sets SequentialDelta on every record: its timestamp
// minus the last timestamp seen for the same correlation key, or nil for the
// first occurrence of that key. SIP records key by Call-ID, Event/Request
// records by Reference-ID; records without a usable key (empty Call-ID,
// unset RefID) fall into a shared keyless bucket per kind class.
func ComputeSequential(records []*model.Record) {
	lastSeen := make(map[string]int64)

	for _, r := range records {
		key := sequentialKey(r)
		if prev, ok := lastSeen[key]; ok {
			d := r.Timestamp - prev
			r.SequentialDelta = &d
		} else {
			r.SequentialDelta = nil
		}
		lastSeen[key] = r.Timestamp
	}
}

// sequentialKey namespaces SIP and span keys so a Call-ID can never collide
// with a numerically equal Reference-ID.
func sequentialKey(r *model.Record) string {
	if r.Kind == model.KindSip {
		return "cid:" + r.Sip.CallID
	}
	if r.HasRef() {
		return "ref:" + r.Span.RefID
	}
	return "ref:"
}

// ComputeRoundTrips sets RoundTripDelta on Event records carrying a usable
// Reference-ID: the event's timestamp minus the timestamp of the first
// Request with the same id seen earlier in the sequence. Requests appearing
// after the event do not retroactively apply. All other records get nil.
func ComputeRoundTrips(records []*model.Record) {
	firstRequest := make(map[string]int64)

	for _, r := range records {
		r.RoundTripDelta = nil

		switch r.Kind {
		case model.KindRequest:
			if r.HasRef() {
				if _, ok := firstRequest[r.Span.RefID]; !ok {
					firstRequest[r.Span.RefID] = r.Timestamp
				}
			}
		case model.KindEvent:
			if r.HasRef() {
				if reqTime, ok := firstRequest[r.Span.RefID]; ok {
					d := r.Timestamp - reqTime
					r.RoundTripDelta = &d
				}
			}
		}
	}
}

// Filter describes the visible record subset. The zero value shows
// everything: an empty or nil EnabledCallIDs set means "show all", the same
// interpretation the call-setup generator uses.
type Filter struct {
	HideSip      bool            `json:"hideSip"`
	HideEvents   bool            `json:"hideEvents"`
	HideRequests bool            `json:"hideRequests"`
	EnabledCIDs  map[string]bool `json:"enabledCids"`
}

// Visible reports whether a record is part of the current view.
// The Call-ID enablement set applies to SIP records only.
func (f *Filter) Visible(r *model.Record) bool {
	switch r.Kind {
	case model.KindSip:
		if f.HideSip {
			return false
		}
		if len(f.EnabledCIDs) > 0 && !f.EnabledCIDs[r.Sip.CallID] {
			return false
		}
		return true
	case model.KindEvent:
		return !f.HideEvents
	case model.KindRequest:
		return !f.HideRequests
	default:
		return false
	}
}

// ComputeCrossFilter recomputes CrossFilterDelta over the full sequence for
// the given filter: each visible record's timestamp minus the immediately
// preceding visible record's, regardless of correlation key; nil for the
// first visible record. Hidden records get nil. Returns the visible records
// in order.
func ComputeCrossFilter(records []*model.Record, f *Filter) []*model.Record {
	if f == nil {
		f = &Filter{}
	}

	var visible []*model.Record
	var prev int64
	havePrev := false

	for _, r := range records {
		if !f.Visible(r) {
			r.CrossFilterDelta = nil
			continue
		}
		if havePrev {
			d := r.Timestamp - prev
			r.CrossFilterDelta = &d
		} else {
			r.CrossFilterDelta = nil
		}
		prev = r.Timestamp
		havePrev = true
		visible = append(visible, r)
	}

	return visible
}
