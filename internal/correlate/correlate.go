// Package correlate assigns stable color slots to correlation keys and
// groups records by Reference-ID. One Index is built per parse pass; there
// is no package-level state, so two passes can never leak into each other.
package correlate

import "github.com/agergec/spantrace/internal/model"

// Palette is the fixed color cycle shared by the record grid and the
// call-setup diagram. Keys beyond the palette size wrap around and share a
// color; that is accepted, not corrected.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
}

// SlotColor returns the palette color for a slot value.
func SlotColor(slot int) string {
	return Palette[slot%len(Palette)]
}

// Index holds the correlation state of one parse pass: insertion-ordered
// key-to-slot mappings for Call-IDs and Connection-IDs, and the per-RefID
// record groups used for round-trip deltas.
type Index struct {
	callSlots map[string]int
	callOrder []string
	connSlots map[string]int
	connOrder []string

	refGroups map[string][]*model.Record
	refOrder  []string
}

// Build scans the full ordered record sequence of one parse pass and
// produces its correlation index. It must see the complete sequence, not a
// filtered one: slot order and "last seen" semantics depend on full order.
func Build(records []*model.Record) *Index {
	idx := &Index{
		callSlots: make(map[string]int),
		connSlots: make(map[string]int),
		refGroups: make(map[string][]*model.Record),
	}

	for _, r := range records {
		switch r.Kind {
		case model.KindSip:
			if cid := r.Sip.CallID; cid != "" {
				if _, seen := idx.callSlots[cid]; !seen {
					idx.callSlots[cid] = len(idx.callOrder) % len(Palette)
					idx.callOrder = append(idx.callOrder, cid)
				}
			}
		case model.KindEvent, model.KindRequest:
			if conn := r.Span.ConnID; conn != "" {
				if _, seen := idx.connSlots[conn]; !seen {
					idx.connSlots[conn] = len(idx.connOrder) % len(Palette)
					idx.connOrder = append(idx.connOrder, conn)
				}
			}
			if r.HasRef() {
				ref := r.Span.RefID
				if _, seen := idx.refGroups[ref]; !seen {
					idx.refOrder = append(idx.refOrder, ref)
				}
				idx.refGroups[ref] = append(idx.refGroups[ref], r)
			}
		}
	}

	return idx
}

// CallSlot returns the color slot for a Call-ID. ok is false for keys the
// pass never saw.
func (idx *Index) CallSlot(callID string) (int, bool) {
	slot, ok := idx.callSlots[callID]
	return slot, ok
}

// ConnSlot returns the color slot for a Connection-ID.
func (idx *Index) ConnSlot(connID string) (int, bool) {
	slot, ok := idx.connSlots[connID]
	return slot, ok
}

// CallIDs returns all Call-IDs in first-appearance order.
func (idx *Index) CallIDs() []string {
	return idx.callOrder
}

// ConnIDs returns all Connection-IDs in first-appearance order.
func (idx *Index) ConnIDs() []string {
	return idx.connOrder
}

// RefGroup returns the records sharing a Reference-ID, in encounter order.
func (idx *Index) RefGroup(refID string) []*model.Record {
	return idx.refGroups[refID]
}

// RefIDs returns all grouped Reference-IDs in first-appearance order.
// The sentinel and empty values are never grouped.
func (idx *Index) RefIDs() []string {
	return idx.refOrder
}
