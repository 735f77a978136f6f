package database

import (
	"errors"

	"github.com/agergec/spantrace/internal/model"
)

// ErrNotFound is returned when a saved log id does not exist.
var ErrNotFound = errors.New("saved log not found")

// SaveResult reports the outcome of a save attempt. Capacity and duplicate
// conditions are caller-policy decisions, so they are result codes rather
// than errors: the store refuses, the application decides what to do.
type SaveResult int

const (
	SaveOK SaveResult = iota
	SaveDuplicate
	SaveLimitReached
)

func (r SaveResult) String() string {
	switch r {
	case SaveOK:
		return "ok"
	case SaveDuplicate:
		return "duplicate"
	case SaveLimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// Store defines the saved-log persistence operations the application needs.
// app.go depends on this interface, not on a concrete backend.
type Store interface {
	// SaveLog persists a log unless the content already exists
	// (SaveDuplicate) or the store holds maxLogs entries or more
	// (SaveLimitReached). Eviction is the caller's responsibility.
	SaveLog(log *model.SavedLog, maxLogs int) (SaveResult, error)

	ListLogs() ([]model.SavedLogMeta, error)
	GetLog(id string) (*model.SavedLog, error)
	DeleteLog(id string) error

	// OldestLogID returns the id of the oldest saved log, for
	// oldest-first eviction. ErrNotFound when the store is empty.
	OldestLogID() (string, error)

	CountLogs() (int64, error)

	Close() error
	Path() string
}
