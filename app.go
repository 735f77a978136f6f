package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/agergec/spantrace/internal/bookmark"
	"github.com/agergec/spantrace/internal/callsetup"
	"github.com/agergec/spantrace/internal/config"
	"github.com/agergec/spantrace/internal/correlate"
	"github.com/agergec/spantrace/internal/database"
	"github.com/agergec/spantrace/internal/delta"
	"github.com/agergec/spantrace/internal/dngrid"
	"github.com/agergec/spantrace/internal/model"
	"github.com/agergec/spantrace/internal/spanparser"
)

// App is the main application struct that Wails binds to the frontend.
// All exported methods become callable from JavaScript.
type App struct {
	ctx   context.Context
	cfg   *config.Config
	log   *slog.Logger
	store database.Store

	session   *session
	bookmarks *bookmark.Tracker
}

// session holds the state of one parse pass. Re-parsing replaces the whole
// session, so correlation slots and deltas never leak between passes.
// Bookmarks live on App because selections survive re-parsing.
type session struct {
	text       string
	records    []*model.Record
	byIdentity map[int]*model.Record
	index      *correlate.Index
	dropped    int
	filter     delta.Filter
}

// NewApp creates a new App instance.
func NewApp(cfg *config.Config, log *slog.Logger) *App {
	return &App{cfg: cfg, log: log, bookmarks: bookmark.NewTracker()}
}

// startup is called when the app starts. The context is saved
// so we can call runtime methods (dialogs, events, etc.)
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if a.cfg.Storage.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.Path), 0o755); err != nil {
			a.log.Error("creating storage directory", "error", err)
			return
		}
	}

	store, err := database.OpenStore(a.cfg.Storage.Driver, a.cfg.Storage.Path)
	if err != nil {
		a.log.Error("opening saved-log store", "driver", a.cfg.Storage.Driver, "error", err)
		return
	}
	a.store = store
	a.log.Info("saved-log store ready", "driver", a.cfg.Storage.Driver, "path", store.Path())
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	if a.store != nil {
		a.store.Close()
	}
}

// -- Parsing --

// ParseSummary is returned to the frontend after a parse pass.
type ParseSummary struct {
	MessageCount int      `json:"messageCount"`
	DroppedLines int      `json:"droppedLines"`
	CidCount     int      `json:"cidCount"`
	Cids         []string `json:"cids"` // first-5 preview
	ConnCount    int      `json:"connCount"`
	Empty        bool     `json:"empty"` // nothing parsed; distinct from an error
}

// ParseText runs a full parse pass over raw trace text: classification,
// correlation indexing, and the two fixed delta metrics. The previous
// session is discarded entirely. Existing bookmarks are re-anchored to the
// new pass and survive wherever their identities still resolve.
func (a *App) ParseText(text string) (*ParseSummary, error) {
	result := spanparser.ParseText(text, func(count int) {
		runtime.EventsEmit(a.ctx, "parse:progress", map[string]interface{}{
			"count": count,
		})
	})

	idx := correlate.Build(result.Records)
	delta.ComputeSequential(result.Records)
	delta.ComputeRoundTrips(result.Records)

	byIdentity := make(map[int]*model.Record, len(result.Records))
	for _, r := range result.Records {
		byIdentity[r.Identity] = r
	}

	a.session = &session{
		text:       text,
		records:    result.Records,
		byIdentity: byIdentity,
		index:      idx,
		dropped:    result.Dropped,
	}
	delta.ComputeCrossFilter(result.Records, &a.session.filter)

	a.bookmarks.Restore(bookmark.ViewSip, a.bookmarks.Identities(bookmark.ViewSip), a.resolveIdentity)
	a.bookmarks.Restore(bookmark.ViewKazimir, a.bookmarks.Identities(bookmark.ViewKazimir), a.resolveIdentity)

	a.log.Debug("parse pass complete",
		"records", result.Count, "dropped", result.Dropped, "cids", len(idx.CallIDs()))

	return a.summary(), nil
}

func (a *App) summary() *ParseSummary {
	s := a.session
	cids := s.index.CallIDs()
	preview := cids
	if len(preview) > 5 {
		preview = preview[:5]
	}
	return &ParseSummary{
		MessageCount: len(s.records),
		DroppedLines: s.dropped,
		CidCount:     len(cids),
		Cids:         append([]string(nil), preview...),
		ConnCount:    len(s.index.ConnIDs()),
		Empty:        len(s.records) == 0,
	}
}

func (a *App) resolveIdentity(identity int) (int64, bool) {
	if a.session == nil {
		return 0, false
	}
	r, ok := a.session.byIdentity[identity]
	if !ok {
		return 0, false
	}
	return r.Timestamp, true
}

// TraceFile is the result of the open-file and load-saved-log flows.
type TraceFile struct {
	Path    string        `json:"path,omitempty"`
	Content string        `json:"content"`
	Summary *ParseSummary `json:"summary"`
}

// OpenTraceFile shows a file dialog, reads the chosen trace, and parses it.
// Returns nil when the user cancels the dialog.
func (a *App) OpenTraceFile() (*TraceFile, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open SIP Span Trace",
		Filters: []runtime.FileFilter{
			{DisplayName: "Trace Files (*.log;*.txt)", Pattern: "*.log;*.txt"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}

	summary, err := a.ParseText(string(data))
	if err != nil {
		return nil, err
	}
	return &TraceFile{Path: path, Content: string(data), Summary: summary}, nil
}

// -- Record views --

// ApplyFilter stores the new filter, recomputes the cross-filter deltas
// from scratch, and returns the visible records in order.
func (a *App) ApplyFilter(f delta.Filter) ([]*model.Record, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	a.session.filter = f
	return delta.ComputeCrossFilter(a.session.records, &a.session.filter), nil
}

// Records returns the full record list of the current pass.
func (a *App) Records() ([]*model.Record, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	return a.session.records, nil
}

// CallColors returns the palette color for every Call-ID of the pass.
func (a *App) CallColors() (map[string]string, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	colors := make(map[string]string)
	for _, cid := range a.session.index.CallIDs() {
		slot, _ := a.session.index.CallSlot(cid)
		colors[cid] = correlate.SlotColor(slot)
	}
	return colors, nil
}

// ConnColors returns the palette color for every connection ID of the pass.
func (a *App) ConnColors() (map[string]string, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	colors := make(map[string]string)
	for _, conn := range a.session.index.ConnIDs() {
		slot, _ := a.session.index.ConnSlot(conn)
		colors[conn] = correlate.SlotColor(slot)
	}
	return colors, nil
}

// DnGrid builds the device-number grid from the current trace text.
func (a *App) DnGrid() (*dngrid.Grid, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	return dngrid.Build(a.session.text), nil
}

// -- Call-setup diagram --

// DiagramResponse wraps the diagram payload with its empty states, which
// the frontend presents as notices rather than failures.
type DiagramResponse struct {
	NoRecords bool               `json:"noRecords"`
	NoPairs   bool               `json:"noPairs"`
	Diagram   *callsetup.Diagram `json:"diagram,omitempty"`
}

// CallSetupDiagram generates the lane/box diagram for the given enabled
// Call-IDs. An empty list means all Call-IDs.
func (a *App) CallSetupDiagram(enabledCids []string) (*DiagramResponse, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}

	enabled := make(map[string]bool, len(enabledCids))
	for _, cid := range enabledCids {
		enabled[cid] = true
	}

	d, err := callsetup.Generate(a.session.records, enabled)
	switch {
	case errors.Is(err, callsetup.ErrNoRecords):
		return &DiagramResponse{NoRecords: true}, nil
	case errors.Is(err, callsetup.ErrNoPairs):
		return &DiagramResponse{NoPairs: true}, nil
	case err != nil:
		return nil, err
	}
	return &DiagramResponse{Diagram: d}, nil
}

// ExportDiagram generates the diagram and writes it as JSON to a location
// chosen by the user. Returns a status message for the frontend.
func (a *App) ExportDiagram(enabledCids []string) (string, error) {
	resp, err := a.CallSetupDiagram(enabledCids)
	if err != nil {
		return "", err
	}
	if resp.Diagram == nil {
		return "No call-setup pairs to export", nil
	}

	savePath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export Call-Setup Diagram",
		DefaultFilename: "call-setup.json",
		Filters: []runtime.FileFilter{
			{DisplayName: "JSON Files (*.json)", Pattern: "*.json"},
		},
	})
	if err != nil {
		return "", err
	}
	if savePath == "" {
		return "", nil
	}

	data, err := json.MarshalIndent(resp.Diagram, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding diagram: %w", err)
	}
	if err := os.WriteFile(savePath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing diagram: %w", err)
	}

	return fmt.Sprintf("Exported %d lanes, %d boxes to %s",
		len(resp.Diagram.Lanes), len(resp.Diagram.Boxes), savePath), nil
}

// -- Bookmarks --

// ToggleBookmark toggles the bookmark on a record identity in the named
// view ("sip" or "kazimir") and reports whether it is now selected.
func (a *App) ToggleBookmark(view string, identity int) (bool, error) {
	v, ok := bookmark.ViewFromName(view)
	if !ok {
		return false, fmt.Errorf("unknown view: %s", view)
	}
	ts, ok := a.resolveIdentity(identity)
	if !ok {
		return false, fmt.Errorf("unknown record identity: %d", identity)
	}
	return a.bookmarks.Toggle(v, identity, ts), nil
}

// Bookmarks returns the step-delta sequence of the named view.
func (a *App) Bookmarks(view string) ([]bookmark.Step, error) {
	v, ok := bookmark.ViewFromName(view)
	if !ok {
		return nil, fmt.Errorf("unknown view: %s", view)
	}
	return a.bookmarks.Steps(v), nil
}

// ClearBookmarks empties the named view's selection.
func (a *App) ClearBookmarks(view string) error {
	v, ok := bookmark.ViewFromName(view)
	if !ok {
		return fmt.Errorf("unknown view: %s", view)
	}
	a.bookmarks.Clear(v)
	return nil
}

// -- Saved logs --

// SaveResponse reports the outcome of SaveCurrentLog.
type SaveResponse struct {
	ID      string `json:"id"`
	Result  string `json:"result"`
	Evicted string `json:"evicted,omitempty"`
}

// SaveCurrentLog persists the current trace text together with both
// bookmark identity lists. When the store is full the oldest log is
// evicted once and the save retried; a duplicate is reported, not saved.
func (a *App) SaveCurrentLog() (*SaveResponse, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no trace parsed")
	}
	if a.store == nil {
		return nil, fmt.Errorf("saved-log store unavailable")
	}

	s := a.summary()
	saved := &model.SavedLog{
		ID:               uuid.NewString(),
		SavedAt:          time.Now().UnixMilli(),
		MessageCount:     s.MessageCount,
		CidCount:         s.CidCount,
		Cids:             s.Cids,
		Content:          a.session.text,
		SipBookmarks:     a.bookmarks.Identities(bookmark.ViewSip),
		KazimirBookmarks: a.bookmarks.Identities(bookmark.ViewKazimir),
	}

	res, err := a.store.SaveLog(saved, a.cfg.Storage.MaxSavedLogs)
	if err != nil {
		return nil, fmt.Errorf("saving log: %w", err)
	}

	resp := &SaveResponse{ID: saved.ID, Result: res.String()}
	if res == database.SaveLimitReached {
		oldest, err := a.store.OldestLogID()
		if err != nil {
			return nil, fmt.Errorf("finding eviction candidate: %w", err)
		}
		if err := a.store.DeleteLog(oldest); err != nil {
			return nil, fmt.Errorf("evicting oldest log: %w", err)
		}
		resp.Evicted = oldest

		res, err = a.store.SaveLog(saved, a.cfg.Storage.MaxSavedLogs)
		if err != nil {
			return nil, fmt.Errorf("saving log after eviction: %w", err)
		}
		resp.Result = res.String()
	}

	a.log.Info("log save attempt", "id", saved.ID, "result", resp.Result)
	return resp, nil
}

// ListSavedLogs returns saved-log metadata, newest first.
func (a *App) ListSavedLogs() ([]model.SavedLogMeta, error) {
	if a.store == nil {
		return nil, fmt.Errorf("saved-log store unavailable")
	}
	return a.store.ListLogs()
}

// LoadSavedLog re-parses a saved log's content and restores the bookmark
// selections persisted with it.
func (a *App) LoadSavedLog(id string) (*TraceFile, error) {
	if a.store == nil {
		return nil, fmt.Errorf("saved-log store unavailable")
	}

	saved, err := a.store.GetLog(id)
	if err != nil {
		return nil, fmt.Errorf("loading saved log: %w", err)
	}

	summary, err := a.ParseText(saved.Content)
	if err != nil {
		return nil, err
	}

	a.bookmarks.Restore(bookmark.ViewSip, saved.SipBookmarks, a.resolveIdentity)
	a.bookmarks.Restore(bookmark.ViewKazimir, saved.KazimirBookmarks, a.resolveIdentity)

	return &TraceFile{Content: saved.Content, Summary: summary}, nil
}

// DeleteSavedLog removes a saved log by id.
func (a *App) DeleteSavedLog(id string) error {
	if a.store == nil {
		return fmt.Errorf("saved-log store unavailable")
	}
	return a.store.DeleteLog(id)
}

// GetVersion returns the application version string.
func (a *App) GetVersion() string {
	return Version
}
