package callsetup

import (
	"errors"
	"testing"

	"github.com/agergec/spantrace/internal/model"
)

func sipMsg(ts int64, method, callID string, cseq int64, from, to string) *model.Record {
	n := cseq
	return &model.Record{
		Timestamp: ts, Kind: model.KindSip,
		Sip: &model.SipFields{
			Method: method, CallID: callID,
			CSeqNumber: &n, CSeqMethod: method,
			From: from, To: to,
		},
	}
}

func event(ts int64) *model.Record {
	return &model.Record{Timestamp: ts, Kind: model.KindEvent, Span: &model.SpanFields{}}
}

func TestPair_DuplicateInviteIgnored(t *testing.T) {
	records := []*model.Record{
		sipMsg(0, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(120, "ACK", "cidA1", 1, "a", "b"),
		sipMsg(200, "INVITE", "cidA1", 1, "a", "b"), // same key, no ACK follows
	}

	setups := Pair(records, nil)

	if len(setups) != 1 {
		t.Fatalf("setups = %d, want exactly 1", len(setups))
	}
	if setups[0].DurationMs != 120 {
		t.Errorf("duration = %d, want 120", setups[0].DurationMs)
	}
	if setups[0].InviteTime != 0 || setups[0].AckTime != 120 {
		t.Errorf("times = %d/%d, want 0/120", setups[0].InviteTime, setups[0].AckTime)
	}
}

func TestPair_AckConsumesInvite(t *testing.T) {
	records := []*model.Record{
		sipMsg(0, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(100, "ACK", "cidA1", 1, "a", "b"),
		sipMsg(300, "ACK", "cidA1", 1, "a", "b"), // nothing left to match
	}

	if setups := Pair(records, nil); len(setups) != 1 {
		t.Errorf("setups = %d, want 1 (second ACK must not rematch)", len(setups))
	}
}

func TestPair_DistinctCSeqAreDistinctKeys(t *testing.T) {
	records := []*model.Record{
		sipMsg(0, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(50, "INVITE", "cidA1", 2, "a", "b"),
		sipMsg(100, "ACK", "cidA1", 2, "a", "b"),
		sipMsg(200, "ACK", "cidA1", 1, "a", "b"),
	}

	setups := Pair(records, nil)
	if len(setups) != 2 {
		t.Fatalf("setups = %d, want 2", len(setups))
	}
	if setups[0].CSeq != 2 || setups[0].DurationMs != 50 {
		t.Errorf("first setup cseq/duration = %d/%d, want 2/50", setups[0].CSeq, setups[0].DurationMs)
	}
	if setups[1].CSeq != 1 || setups[1].DurationMs != 200 {
		t.Errorf("second setup cseq/duration = %d/%d, want 1/200", setups[1].CSeq, setups[1].DurationMs)
	}
}

func TestPair_DurationFloor(t *testing.T) {
	records := []*model.Record{
		sipMsg(500, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(500, "ACK", "cidA1", 1, "a", "b"),
	}

	setups := Pair(records, nil)
	if len(setups) != 1 || setups[0].DurationMs != 1 {
		t.Errorf("zero-width setup must be floored to 1 ms, got %+v", setups)
	}
}

func TestPair_EnabledSetRestricts(t *testing.T) {
	records := []*model.Record{
		sipMsg(0, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(100, "ACK", "cidA1", 1, "a", "b"),
		sipMsg(200, "INVITE", "cidB1", 1, "c", "d"),
		sipMsg(300, "ACK", "cidB1", 1, "c", "d"),
	}

	setups := Pair(records, map[string]bool{"cidB1": true})
	if len(setups) != 1 || setups[0].CallID != "cidB1" {
		t.Errorf("setups = %+v, want only cidB1", setups)
	}

	// Empty set means show all, matching the delta engine's filter.
	if setups := Pair(records, map[string]bool{}); len(setups) != 2 {
		t.Errorf("empty enabled set: setups = %d, want 2", len(setups))
	}
}

func TestPair_NilCSeqSkipped(t *testing.T) {
	records := []*model.Record{
		{Timestamp: 0, Kind: model.KindSip, Sip: &model.SipFields{Method: "INVITE", CallID: "cidA1"}},
		sipMsg(100, "ACK", "cidA1", 1, "a", "b"),
	}

	if setups := Pair(records, nil); len(setups) != 0 {
		t.Errorf("INVITE without CSeq must not pair, got %+v", setups)
	}
}

func TestGenerate_NoRecords(t *testing.T) {
	_, err := Generate([]*model.Record{event(100)}, nil)
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("err = %v, want ErrNoRecords", err)
	}
}

func TestGenerate_NoPairs(t *testing.T) {
	records := []*model.Record{
		sipMsg(0, "INVITE", "cidA1", 1, "a", "b"),
		sipMsg(50, "BYE", "cidA1", 2, "a", "b"),
	}
	_, err := Generate(records, nil)
	if !errors.Is(err, ErrNoPairs) {
		t.Errorf("err = %v, want ErrNoPairs", err)
	}
}

func TestGenerate_TwoCallsAndOrphanBye(t *testing.T) {
	records := []*model.Record{
		sipMsg(1000, "INVITE", "cidB1", 1, "bob", "carol"),
		sipMsg(1200, "ACK", "cidB1", 1, "bob", "carol"),
		sipMsg(500, "INVITE", "cidA1", 7, "alice", "bob"),
		sipMsg(900, "ACK", "cidA1", 7, "alice", "bob"),
		sipMsg(2000, "BYE", "cidC1", 3, "x", "y"),
	}

	d, err := Generate(records, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(d.Lanes) != 2 {
		t.Fatalf("lanes = %d, want 2 (orphan BYE contributes nothing)", len(d.Lanes))
	}
	// Lexicographic lane order.
	if d.Lanes[0].ID != "cidA1" || d.Lanes[1].ID != "cidB1" {
		t.Errorf("lane order = %s, %s, want cidA1, cidB1", d.Lanes[0].ID, d.Lanes[1].ID)
	}
	if d.Lanes[0].Name != "cidA1  alice -> bob" {
		t.Errorf("lane name = %q", d.Lanes[0].Name)
	}

	if len(d.Boxes) != 2 {
		t.Fatalf("boxes = %d, want 2", len(d.Boxes))
	}
	// Origin is the minimum invite time (500), not the first setup's.
	var byLane = map[string]Box{}
	for _, b := range d.Boxes {
		byLane[b.LaneID] = b
	}
	if b := byLane["cidA1"]; b.StartOffset != 0 || b.Duration != 400 {
		t.Errorf("cidA1 box = %+v, want offset 0 duration 400", b)
	}
	if b := byLane["cidB1"]; b.StartOffset != 500 || b.Duration != 200 {
		t.Errorf("cidB1 box = %+v, want offset 500 duration 200", b)
	}

	// Box color tracks its lane.
	for _, b := range d.Boxes {
		for i, l := range d.Lanes {
			if l.ID == b.LaneID && b.Color != d.Lanes[i].Color {
				t.Errorf("box on %s color = %q, lane color = %q", b.LaneID, b.Color, l.Color)
			}
		}
	}

	if d.StartTime != model.FormatClockSpaced(500) {
		t.Errorf("start time = %q, want %q", d.StartTime, model.FormatClockSpaced(500))
	}
	if d.Boxes[0].Label == "" || d.Config.TimeUnit != "ms" {
		t.Error("diagram payload missing label or config")
	}
}
