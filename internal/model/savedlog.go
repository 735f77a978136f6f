package model

// SavedLog is one persisted trace: the raw text plus enough summary data to
// list it without re-parsing, and the bookmark identity lists for both views.
// Bookmarks are stored as plain identity lists rather than row references so
// they survive serialization; they are re-resolved after the text is
// re-parsed on load.
type SavedLog struct {
	ID               string   `json:"id"`
	SavedAt          int64    `json:"savedAt"` // epoch milliseconds
	MessageCount     int      `json:"messageCount"`
	CidCount         int      `json:"cidCount"`
	Cids             []string `json:"cids"` // first-5 preview, encounter order
	Content          string   `json:"content"`
	SipBookmarks     []int    `json:"sipBookmarks"`
	KazimirBookmarks []int    `json:"kazimirBookmarks"`
}

// SavedLogMeta is the listing projection of a SavedLog: everything except the
// raw content, which can be large.
type SavedLogMeta struct {
	ID           string   `json:"id"`
	SavedAt      int64    `json:"savedAt"`
	MessageCount int      `json:"messageCount"`
	CidCount     int      `json:"cidCount"`
	Cids         []string `json:"cids"`
}
