package model

// Kind discriminates the three record variants parsed from a SIP Span trace.
type Kind int

const (
	KindSip Kind = iota
	KindEvent
	KindRequest
)

// String returns the lowercase tag used in JSON payloads and filter requests.
func (k Kind) String() string {
	switch k {
	case KindSip:
		return "sip"
	case KindEvent:
		return "event"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Direction of a message relative to the logging endpoint.
type Direction string

const (
	Outbound Direction = "out"
	Inbound  Direction = "in"
)

// NoRefID is the 32-bit unsigned "unset" sentinel the switch writes when a
// Request/Event carries no reference correlation. Treated the same as "".
const NoRefID = "4294967295"

// Record is a single classified trace line. Exactly one of Sip or Span is
// non-nil, selected by Kind (Event and Request both use Span).
//
// Identity is assigned sequentially during one parse pass and never recycled
// within that pass. It is the only handle bookmarks hold, so it must survive
// serialization; re-parsing the same text yields the same identities because
// classification is a pure function of input order.
type Record struct {
	Identity  int    `json:"identity"`
	Timestamp int64  `json:"timestamp"` // milliseconds since local midnight
	Raw       string `json:"raw"`
	Kind      Kind   `json:"kind"`

	Sip  *SipFields  `json:"sip,omitempty"`
	Span *SpanFields `json:"span,omitempty"`

	// Derived fields, computed after classification. Nil means "none"
	// (first record for its key, or not visible / not applicable).
	SequentialDelta  *int64 `json:"sequentialDelta,omitempty"`
	RoundTripDelta   *int64 `json:"roundTripDelta,omitempty"`
	CrossFilterDelta *int64 `json:"crossFilterDelta,omitempty"`
}

// SipFields holds the fields specific to a SIP protocol line.
type SipFields struct {
	Direction   Direction `json:"direction"`
	Method      string    `json:"method"` // request method or 3-digit status code
	IsResponse  bool      `json:"isResponse"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	CSeqNumber  *int64    `json:"cseqNumber,omitempty"`
	CSeqMethod  string    `json:"cseqMethod"`
	CallID      string    `json:"callId"`
	ContentType string    `json:"contentType"`
}

// SpanFields holds the parameter fields shared by Event and Request lines.
// Type carries the token following the Event/Request prefix (e.g. "Ringing"
// for "EventRinging(...)"). Direction is implicit: Events are outbound,
// Requests inbound.
type SpanFields struct {
	Type   string `json:"type"`
	DN     string `json:"dn"`
	ODN    string `json:"odn"`
	ConnID string `json:"connId"`
	RefID  string `json:"refId"`
	MsgID  string `json:"msgId"`
}

// CallID returns the SIP Call-ID, or "" for non-SIP records.
func (r *Record) CallID() string {
	if r.Sip != nil {
		return r.Sip.CallID
	}
	return ""
}

// RefID returns the span Reference-ID, or "" for SIP records.
func (r *Record) RefID() string {
	if r.Span != nil {
		return r.Span.RefID
	}
	return ""
}

// HasRef reports whether the record carries a usable Reference-ID,
// i.e. one that is neither empty nor the unset sentinel.
func (r *Record) HasRef() bool {
	ref := r.RefID()
	return ref != "" && ref != NoRefID
}
