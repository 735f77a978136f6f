package bookmark

import "testing"

func TestToggle_AddAndRemove(t *testing.T) {
	tr := NewTracker()

	if !tr.Toggle(ViewSip, 3, 300) {
		t.Error("first toggle must select")
	}
	if tr.Toggle(ViewSip, 3, 300) {
		t.Error("second toggle must deselect")
	}
	if len(tr.Entries(ViewSip)) != 0 {
		t.Errorf("entries = %v, want empty", tr.Entries(ViewSip))
	}
}

func TestToggle_SortedByTimestampNotClickOrder(t *testing.T) {
	tr := NewTracker()

	// Click order 3, 1, 5 with increasing timestamps by identity.
	tr.Toggle(ViewSip, 3, 300)
	tr.Toggle(ViewSip, 1, 100)
	tr.Toggle(ViewSip, 5, 500)

	got := tr.Identities(ViewSip)
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("identities = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("identity[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestViews_Independent(t *testing.T) {
	tr := NewTracker()
	tr.Toggle(ViewSip, 1, 100)
	tr.Toggle(ViewKazimir, 2, 200)

	if len(tr.Entries(ViewSip)) != 1 || tr.Entries(ViewSip)[0].Identity != 1 {
		t.Errorf("sip entries = %v", tr.Entries(ViewSip))
	}
	if len(tr.Entries(ViewKazimir)) != 1 || tr.Entries(ViewKazimir)[0].Identity != 2 {
		t.Errorf("kazimir entries = %v", tr.Entries(ViewKazimir))
	}

	tr.Clear(ViewSip)
	if len(tr.Entries(ViewSip)) != 0 || len(tr.Entries(ViewKazimir)) != 1 {
		t.Error("clearing one view must not touch the other")
	}
}

func TestSteps(t *testing.T) {
	tr := NewTracker()
	tr.Toggle(ViewSip, 5, 500)
	tr.Toggle(ViewSip, 1, 100)
	tr.Toggle(ViewSip, 3, 350)

	steps := tr.Steps(ViewSip)
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	if steps[0].Gap != nil || steps[0].Cumulative != 0 {
		t.Errorf("first step gap/cumulative = %v/%d, want none/0", steps[0].Gap, steps[0].Cumulative)
	}
	if steps[1].Gap == nil || *steps[1].Gap != 250 || steps[1].Cumulative != 250 {
		t.Errorf("second step = %+v, want gap 250 cumulative 250", steps[1])
	}
	if steps[2].Gap == nil || *steps[2].Gap != 150 || steps[2].Cumulative != 400 {
		t.Errorf("third step = %+v, want gap 150 cumulative 400", steps[2])
	}
	if steps[1].DisplayTime != "00:00:00.350" {
		t.Errorf("display time = %q, want 00:00:00.350", steps[1].DisplayTime)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	timestamps := map[int]int64{1: 100, 3: 300, 5: 500}
	resolve := func(id int) (int64, bool) {
		ts, ok := timestamps[id]
		return ts, ok
	}

	tr := NewTracker()
	tr.Toggle(ViewSip, 3, 300)
	tr.Toggle(ViewSip, 1, 100)
	tr.Toggle(ViewSip, 5, 500)
	saved := tr.Identities(ViewSip)

	restored := NewTracker()
	restored.Restore(ViewSip, saved, resolve)

	a, b := tr.Entries(ViewSip), restored.Entries(ViewSip)
	if len(a) != len(b) {
		t.Fatalf("restored %d entries, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d = %+v, want %+v", i, b[i], a[i])
		}
	}
}

func TestRestore_UnresolvableDropped(t *testing.T) {
	tr := NewTracker()
	tr.Restore(ViewKazimir, []int{1, 99}, func(id int) (int64, bool) {
		if id == 1 {
			return 100, true
		}
		return 0, false
	})

	if got := tr.Identities(ViewKazimir); len(got) != 1 || got[0] != 1 {
		t.Errorf("identities = %v, want [1]", got)
	}
}

func TestViewFromName(t *testing.T) {
	if v, ok := ViewFromName("sip"); !ok || v != ViewSip {
		t.Error("sip name must map to ViewSip")
	}
	if v, ok := ViewFromName("kazimir"); !ok || v != ViewKazimir {
		t.Error("kazimir name must map to ViewKazimir")
	}
	if _, ok := ViewFromName("other"); ok {
		t.Error("unknown view name must not resolve")
	}
}
