// Package spanparser classifies raw SIP Span trace text into typed records.
//
// The trace format is line-oriented. Three shapes are recognized:
//
//	HH:MM:SS.mmm (<-|->)(METHOD|STATUS) [f: FROM |t: TO |cs: CSEQ METHOD | CALLID] CONTENT...
//	HH:MM:SS.mmm EventXxx(dn=...|odn=...|connid=...|refid=...|msgid=...)
//	HH:MM:SS.mmm RequestXxx(dn=...|odn=...|connid=...|refid=...|msgid=...)
//
// Lines matching none of the shapes are silently dropped; the drop count is
// surfaced through ParseResult for diagnostics. This lossy behaviour is part
// of the format contract, not an error condition.
package spanparser

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/agergec/spantrace/internal/model"
)

var (
	// sipLineRe captures timestamp, direction marker, method/status, the
	// bracketed field block, and the trailing content.
	sipLineRe = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d{3})\s+(<-|->)\s*(\d{3}|[A-Za-z]+)\s+\[([^\]]*)\](.*)$`)

	// spanLineRe captures timestamp, the Event/Request prefix, the
	// capitalized type token, and the comma-free parameter list.
	spanLineRe = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d{3})\s+(Event|Request)([A-Z][A-Za-z0-9]*)\(([^()]*)\)`)

	// callIdRe recognizes the trailing bracket field used as Call-ID:
	// a letter followed by alphanumerics ending in a digit.
	callIdRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*[0-9]$`)

	contentTypeRe = regexp.MustCompile(`(?i)content-type:\s*([^\s;|]+)`)

	// Independent sub-patterns per span parameter. Each defaults to ""
	// when absent so a partial parameter list is never a parse failure.
	spanParamRes = map[string]*regexp.Regexp{
		"dn":     regexp.MustCompile(`(?:^|\|)\s*dn=([^|]*)`),
		"odn":    regexp.MustCompile(`(?:^|\|)\s*odn=([^|]*)`),
		"connid": regexp.MustCompile(`(?:^|\|)\s*connid=([^|]*)`),
		"refid":  regexp.MustCompile(`(?:^|\|)\s*refid=([^|]*)`),
		"msgid":  regexp.MustCompile(`(?:^|\|)\s*msgid=([^|]*)`),
	}
)

// ParseResult contains the outcome of one full classification pass.
type ParseResult struct {
	Records []*model.Record
	Count   int
	Dropped int
}

// SpanMatch is the raw Event/Request line match shared with the DN grid
// builder, which runs its own pass over the same text and tags rows
// differently than the record pipeline does.
type SpanMatch struct {
	Timestamp int64
	Kind      model.Kind // KindEvent or KindRequest
	Type      string
	DN        string
	ODN       string
	ConnID    string
	RefID     string
	MsgID     string
	Raw       string
}

// MatchSpanLine matches a single Event/Request line. Returns false for
// anything else, including SIP lines and blank lines.
func MatchSpanLine(line string) (*SpanMatch, bool) {
	line = strings.TrimSpace(line)
	m := spanLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	ts, ok := model.ParseClock(m[1])
	if !ok {
		return nil, false
	}

	kind := model.KindEvent
	if m[2] == "Request" {
		kind = model.KindRequest
	}

	params := m[4]
	return &SpanMatch{
		Timestamp: ts,
		Kind:      kind,
		Type:      m[3],
		DN:        spanParam(params, "dn"),
		ODN:       spanParam(params, "odn"),
		ConnID:    spanParam(params, "connid"),
		RefID:     spanParam(params, "refid"),
		MsgID:     spanParam(params, "msgid"),
		Raw:       line,
	}, true
}

// spanParam extracts one named parameter from the pipe-delimited list.
// The literal value "null" normalizes to the empty string.
func spanParam(params, name string) string {
	m := spanParamRes[name].FindStringSubmatch(params)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if v == "null" {
		return ""
	}
	return v
}

// ParseLine classifies one line of trace text. Returns (nil, false) for
// blank lines and lines matching neither recognized shape.
// ParseLine is pure: identities are assigned by ParseText.
func ParseLine(line string) (*model.Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	if r, ok := parseSipLine(line); ok {
		return r, true
	}

	if sm, ok := MatchSpanLine(line); ok {
		return &model.Record{
			Timestamp: sm.Timestamp,
			Raw:       line,
			Kind:      sm.Kind,
			Span: &model.SpanFields{
				Type:   sm.Type,
				DN:     sm.DN,
				ODN:    sm.ODN,
				ConnID: sm.ConnID,
				RefID:  sm.RefID,
				MsgID:  sm.MsgID,
			},
		}, true
	}

	return nil, false
}

func parseSipLine(line string) (*model.Record, bool) {
	m := sipLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	ts, ok := model.ParseClock(m[1])
	if !ok {
		return nil, false
	}

	dir := model.Outbound
	if m[2] == "<-" {
		dir = model.Inbound
	}

	method := m[3]
	isResponse := len(method) == 3 && isAllDigits(method)

	sip := &model.SipFields{
		Direction:  dir,
		Method:     method,
		IsResponse: isResponse,
	}

	for _, field := range strings.Split(m[4], "|") {
		field = strings.TrimSpace(field)
		switch {
		case strings.HasPrefix(field, "f:"):
			sip.From = strings.TrimSpace(strings.TrimPrefix(field, "f:"))
		case strings.HasPrefix(field, "t:"):
			sip.To = strings.TrimSpace(strings.TrimPrefix(field, "t:"))
		case strings.HasPrefix(field, "cs:"):
			num, meth := parseCSeq(strings.TrimSpace(strings.TrimPrefix(field, "cs:")))
			sip.CSeqNumber = num
			sip.CSeqMethod = meth
		case callIdRe.MatchString(field):
			sip.CallID = field
		}
	}

	if ct := contentTypeRe.FindStringSubmatch(m[5]); ct != nil {
		sip.ContentType = ct[1]
	}

	return &model.Record{
		Timestamp: ts,
		Raw:       line,
		Kind:      model.KindSip,
		Sip:       sip,
	}, true
}

// parseCSeq splits "NUM METHOD" into its parts. An unparsable number yields
// a nil CSeq rather than an error; the method text is kept either way.
func parseCSeq(s string) (*int64, string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, ""
	}
	meth := ""
	if len(fields) > 1 {
		meth = strings.Join(fields[1:], " ")
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, meth
	}
	return &n, meth
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ParseText runs one full classification pass over raw trace text.
// Identities are assigned sequentially from zero in line order, so parsing
// the same text twice yields the same identities. The onProgress callback is
// called every 10,000 records; pass nil if you don't need progress updates.
func ParseText(text string, onProgress func(count int)) *ParseResult {
	result := &ParseResult{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r, ok := ParseLine(line)
		if !ok {
			result.Dropped++
			continue
		}

		r.Identity = result.Count
		result.Records = append(result.Records, r)
		result.Count++

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	return result
}
