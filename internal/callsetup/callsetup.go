// Package callsetup pairs SIP INVITE/ACK records into call-setup spans and
// renders them as the lane/box diagram payload the external timeline editor
// imports.
package callsetup

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agergec/spantrace/internal/correlate"
	"github.com/agergec/spantrace/internal/model"
)

// ErrNoRecords is returned when the input contains no SIP records at all.
var ErrNoRecords = errors.New("no SIP records")

// ErrNoPairs is returned when SIP records exist but no INVITE/ACK pair
// matched. Callers present this as an empty state, not a failure.
var ErrNoPairs = errors.New("no INVITE/ACK pairs")

// Setup is one matched INVITE/ACK pair.
type Setup struct {
	CallID     string `json:"callId"`
	CSeq       int64  `json:"cseqNumber"`
	InviteTime int64  `json:"inviteTimestamp"`
	AckTime    int64  `json:"ackTimestamp"`
	DurationMs int64  `json:"durationMs"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// Lane is one diagram lane, representing a single Call-ID.
type Lane struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Box is one call-setup span placed on a lane.
type Box struct {
	ID          string `json:"id"`
	LaneID      string `json:"laneId"`
	StartOffset int64  `json:"startOffset"`
	Duration    int64  `json:"duration"`
	Color       string `json:"color"`
	Label       string `json:"label"`
}

// Config carries the editor settings block of the diagram payload.
type Config struct {
	TimeUnit   string `json:"timeUnit"`
	LaneHeight int    `json:"laneHeight"`
}

// Diagram is the JSON-shaped payload consumed by the diagram editor's
// import routine.
type Diagram struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"` // "HH:MM:SS mmm"
	Lanes     []Lane `json:"lanes"`
	Boxes     []Box  `json:"boxes"`
	Config    Config `json:"config"`
}

type pendingKey struct {
	callID string
	cseq   int64
}

type endpoints struct {
	from string
	to   string
}

// Pair matches INVITE and ACK records sharing (Call-ID, CSeq). The enabled
// set restricts which Call-IDs participate; an empty or nil set means all.
// The first INVITE for a key wins and an ACK consumes its INVITE, so a
// duplicate INVITE after a completed pair can never be re-matched.
func Pair(records []*model.Record, enabled map[string]bool) []Setup {
	setups, _ := pair(records, enabled)
	return setups
}

func pair(records []*model.Record, enabled map[string]bool) ([]Setup, map[string]endpoints) {
	pending := make(map[pendingKey]*model.Record)
	labels := make(map[string]endpoints)
	var setups []Setup

	for _, r := range records {
		if r.Kind != model.KindSip || r.Sip.IsResponse {
			continue
		}
		cid := r.Sip.CallID
		if cid == "" {
			continue
		}
		if len(enabled) > 0 && !enabled[cid] {
			continue
		}
		// Endpoint labels come from the first INVITE per Call-ID,
		// independent of CSeq validity.
		if r.Sip.Method == "INVITE" {
			if _, exists := labels[cid]; !exists {
				labels[cid] = endpoints{from: r.Sip.From, to: r.Sip.To}
			}
		}
		if r.Sip.CSeqNumber == nil {
			continue
		}
		key := pendingKey{callID: cid, cseq: *r.Sip.CSeqNumber}

		switch r.Sip.Method {
		case "INVITE":
			if _, exists := pending[key]; !exists {
				pending[key] = r
			}
		case "ACK":
			invite, exists := pending[key]
			if !exists {
				continue
			}
			delete(pending, key)

			dur := r.Timestamp - invite.Timestamp
			if dur < 1 {
				dur = 1 // floor avoids zero-width boxes
			}
			setups = append(setups, Setup{
				CallID:     cid,
				CSeq:       key.cseq,
				InviteTime: invite.Timestamp,
				AckTime:    r.Timestamp,
				DurationMs: dur,
				From:       invite.Sip.From,
				To:         invite.Sip.To,
			})
		}
	}

	return setups, labels
}

// Generate builds the diagram for the given record sequence and enabled
// Call-ID set. Returns ErrNoRecords when the sequence holds no SIP records
// and ErrNoPairs when pairing produced nothing.
func Generate(records []*model.Record, enabled map[string]bool) (*Diagram, error) {
	hasSip := false
	for _, r := range records {
		if r.Kind == model.KindSip {
			hasSip = true
			break
		}
	}
	if !hasSip {
		return nil, ErrNoRecords
	}

	setups, labels := pair(records, enabled)
	if len(setups) == 0 {
		return nil, ErrNoPairs
	}

	origin := setups[0].InviteTime
	for _, s := range setups[1:] {
		if s.InviteTime < origin {
			origin = s.InviteTime
		}
	}

	laneIDs := make([]string, 0, len(setups))
	seen := make(map[string]bool)
	for _, s := range setups {
		if !seen[s.CallID] {
			seen[s.CallID] = true
			laneIDs = append(laneIDs, s.CallID)
		}
	}
	sort.Strings(laneIDs)

	laneIndex := make(map[string]int, len(laneIDs))
	lanes := make([]Lane, 0, len(laneIDs))
	for i, cid := range laneIDs {
		laneIndex[cid] = i
		name := cid
		if ep, ok := labels[cid]; ok && (ep.from != "" || ep.to != "") {
			name = fmt.Sprintf("%s  %s -> %s", cid, ep.from, ep.to)
		}
		lanes = append(lanes, Lane{
			ID:    cid,
			Name:  name,
			Color: correlate.SlotColor(i),
		})
	}

	boxes := make([]Box, 0, len(setups))
	for i, s := range setups {
		boxes = append(boxes, Box{
			ID:          fmt.Sprintf("setup-%d", i),
			LaneID:      s.CallID,
			StartOffset: s.InviteTime - origin,
			Duration:    s.DurationMs,
			Color:       correlate.SlotColor(laneIndex[s.CallID]),
			Label:       fmt.Sprintf("cs %d (%d ms)", s.CSeq, s.DurationMs),
		})
	}

	return &Diagram{
		Title:     "Call setup",
		StartTime: model.FormatClockSpaced(origin),
		Lanes:     lanes,
		Boxes:     boxes,
		Config:    Config{TimeUnit: "ms", LaneHeight: 40},
	}, nil
}
