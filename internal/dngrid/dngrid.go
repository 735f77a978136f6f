// Package dngrid builds the device-number grid view: a second pass over the
// raw trace text that places every Event/Request line in exactly one column
// keyed by its DN. The pass shares the classifier's span-line matcher but
// produces its own rows; the record pipeline's correlation slots and
// identities play no part here.
package dngrid

import (
	"bufio"
	"strings"

	"github.com/agergec/spantrace/internal/model"
	"github.com/agergec/spantrace/internal/spanparser"
)

// SwitchSuffix marks a DN-like value as an exchange/switch identity rather
// than an end device. Such values never become ordinary columns; the last
// one seen populates the single switch column.
const SwitchSuffix = "-SW"

// Row is one Event/Request line placed in the grid.
type Row struct {
	Timestamp int64      `json:"timestamp"`
	Kind      model.Kind `json:"kind"` // KindEvent or KindRequest
	Type      string     `json:"type"`
	DN        string     `json:"dn"`
	RefID     string     `json:"refId"`
	IsSwitch  bool       `json:"isSwitch"`
	Raw       string     `json:"raw"`

	// ColumnIndex positions the row in the final layout returned by
	// Grid.Layout(). -1 means no tracked column: the row renders empty.
	ColumnIndex int `json:"columnIndex"`

	// DeltaFromPrevious is measured against the immediately preceding row
	// of the unfiltered builder sequence; nil for the first row.
	DeltaFromPrevious *int64 `json:"deltaFromPrevious,omitempty"`

	// DeltaFromMatchingRequest is carried by Event rows only: time since
	// the first Request row sharing this row's Reference-ID, nil when no
	// such Request has been seen yet.
	DeltaFromMatchingRequest *int64 `json:"deltaFromMatchingRequest,omitempty"`
}

// Column kinds in the final layout.
const (
	ColumnDN     = "dn"
	ColumnNoDN   = "nodn"
	ColumnSwitch = "switch"
)

// Column is one column of the rendered layout.
type Column struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Grid is the DN-indexed view-model.
type Grid struct {
	Rows    []*Row   `json:"rows"`
	DNs     []string `json:"dns"` // first-appearance order, switch values excluded
	HasNoDN bool     `json:"hasNoDn"`
	SwitchDN string  `json:"switchDn"` // "" when no switch value appeared
	Dropped int      `json:"dropped"`  // non-span lines skipped by this pass
}

// Build runs the grid pass over raw trace text.
func Build(text string) *Grid {
	g := &Grid{}
	dnSeen := make(map[string]bool)
	firstRequest := make(map[string]int64)

	var prev int64
	havePrev := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sm, ok := spanparser.MatchSpanLine(line)
		if !ok {
			g.Dropped++
			continue
		}

		row := &Row{
			Timestamp: sm.Timestamp,
			Kind:      sm.Kind,
			Type:      sm.Type,
			DN:        sm.DN,
			RefID:     sm.RefID,
			IsSwitch:  strings.HasSuffix(sm.DN, SwitchSuffix),
			Raw:       sm.Raw,
		}

		switch {
		case row.IsSwitch:
			// Last write wins for the single switch column.
			g.SwitchDN = sm.DN
		case sm.DN == "":
			g.HasNoDN = true
		default:
			if !dnSeen[sm.DN] {
				dnSeen[sm.DN] = true
				g.DNs = append(g.DNs, sm.DN)
			}
		}

		if havePrev {
			d := sm.Timestamp - prev
			row.DeltaFromPrevious = &d
		}
		prev = sm.Timestamp
		havePrev = true

		usableRef := sm.RefID != "" && sm.RefID != model.NoRefID
		if sm.Kind == model.KindRequest && usableRef {
			if _, seen := firstRequest[sm.RefID]; !seen {
				firstRequest[sm.RefID] = sm.Timestamp
			}
		}
		if sm.Kind == model.KindEvent && usableRef {
			if reqTime, seen := firstRequest[sm.RefID]; seen {
				d := sm.Timestamp - reqTime
				row.DeltaFromMatchingRequest = &d
			}
		}

		g.Rows = append(g.Rows, row)
	}

	g.assignColumns()
	return g
}

// Layout returns the final ordered column list: DN columns in
// first-appearance order, then the reserved no-DN column if any row lacked a
// DN, then the switch column if a switch value appeared.
func (g *Grid) Layout() []Column {
	cols := make([]Column, 0, len(g.DNs)+2)
	for _, dn := range g.DNs {
		cols = append(cols, Column{Kind: ColumnDN, Label: dn})
	}
	if g.HasNoDN {
		cols = append(cols, Column{Kind: ColumnNoDN, Label: "(no DN)"})
	}
	if g.SwitchDN != "" {
		cols = append(cols, Column{Kind: ColumnSwitch, Label: g.SwitchDN})
	}
	return cols
}

// assignColumns resolves each row to exactly one column of the final layout.
func (g *Grid) assignColumns() {
	dnIndex := make(map[string]int, len(g.DNs))
	for i, dn := range g.DNs {
		dnIndex[dn] = i
	}
	noDNCol := -1
	if g.HasNoDN {
		noDNCol = len(g.DNs)
	}
	switchCol := -1
	if g.SwitchDN != "" {
		switchCol = len(g.DNs)
		if g.HasNoDN {
			switchCol++
		}
	}

	for _, row := range g.Rows {
		switch {
		case row.IsSwitch:
			row.ColumnIndex = switchCol
		case row.DN == "":
			row.ColumnIndex = noDNCol
		default:
			if i, ok := dnIndex[row.DN]; ok {
				row.ColumnIndex = i
			} else {
				row.ColumnIndex = -1
			}
		}
	}
}
