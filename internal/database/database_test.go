package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/agergec/spantrace/internal/model"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func createTestStore(t *testing.T) *LogStore {
	t.Helper()
	db, err := Open(&SQLiteDialect{}, tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleLog(id, content string) *model.SavedLog {
	return &model.SavedLog{
		ID:               id,
		SavedAt:          1700000000000,
		MessageCount:     42,
		CidCount:         3,
		Cids:             []string{"cidA1", "cidB1", "cidC1"},
		Content:          content,
		SipBookmarks:     []int{1, 3, 5},
		KazimirBookmarks: []int{2},
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	path := tempDBPath(t)

	db, err := Open(&SQLiteDialect{}, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	// Reopen and verify it is queryable.
	db2, err := Open(&SQLiteDialect{}, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	count, err := db2.CountLogs()
	if err != nil {
		t.Fatalf("CountLogs failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 logs, got %d", count)
	}
}

func TestSaveAndGetLog(t *testing.T) {
	db := createTestStore(t)

	res, err := db.SaveLog(sampleLog("log-1", "raw trace text"), 10)
	if err != nil {
		t.Fatalf("SaveLog failed: %v", err)
	}
	if res != SaveOK {
		t.Fatalf("result = %v, want ok", res)
	}

	got, err := db.GetLog("log-1")
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if got.Content != "raw trace text" {
		t.Errorf("content = %q", got.Content)
	}
	if got.MessageCount != 42 || got.CidCount != 3 {
		t.Errorf("counts = %d/%d, want 42/3", got.MessageCount, got.CidCount)
	}
	if len(got.Cids) != 3 || got.Cids[0] != "cidA1" {
		t.Errorf("cids = %v", got.Cids)
	}
	if len(got.SipBookmarks) != 3 || got.SipBookmarks[1] != 3 {
		t.Errorf("sip bookmarks = %v, want [1 3 5]", got.SipBookmarks)
	}
	if len(got.KazimirBookmarks) != 1 || got.KazimirBookmarks[0] != 2 {
		t.Errorf("kazimir bookmarks = %v, want [2]", got.KazimirBookmarks)
	}
}

func TestSaveLog_Duplicate(t *testing.T) {
	db := createTestStore(t)

	if res, _ := db.SaveLog(sampleLog("log-1", "same text"), 10); res != SaveOK {
		t.Fatalf("first save = %v, want ok", res)
	}
	res, err := db.SaveLog(sampleLog("log-2", "same text"), 10)
	if err != nil {
		t.Fatalf("SaveLog failed: %v", err)
	}
	if res != SaveDuplicate {
		t.Errorf("result = %v, want duplicate", res)
	}

	count, _ := db.CountLogs()
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSaveLog_LimitReached(t *testing.T) {
	db := createTestStore(t)

	for i := 0; i < 3; i++ {
		l := sampleLog(fmt.Sprintf("log-%d", i), fmt.Sprintf("text %d", i))
		l.SavedAt = int64(1000 + i)
		if res, err := db.SaveLog(l, 3); err != nil || res != SaveOK {
			t.Fatalf("save %d: res=%v err=%v", i, res, err)
		}
	}

	res, err := db.SaveLog(sampleLog("log-9", "text 9"), 3)
	if err != nil {
		t.Fatalf("SaveLog failed: %v", err)
	}
	if res != SaveLimitReached {
		t.Errorf("result = %v, want limit_reached", res)
	}

	// Caller-side eviction: delete the oldest, then retry.
	oldest, err := db.OldestLogID()
	if err != nil {
		t.Fatalf("OldestLogID failed: %v", err)
	}
	if oldest != "log-0" {
		t.Errorf("oldest = %q, want log-0", oldest)
	}
	if err := db.DeleteLog(oldest); err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	if res, _ := db.SaveLog(sampleLog("log-9", "text 9"), 3); res != SaveOK {
		t.Errorf("post-eviction save = %v, want ok", res)
	}
}

func TestListLogs_NewestFirst(t *testing.T) {
	db := createTestStore(t)

	for i := 0; i < 3; i++ {
		l := sampleLog(fmt.Sprintf("log-%d", i), fmt.Sprintf("text %d", i))
		l.SavedAt = int64(1000 + i)
		db.SaveLog(l, 0)
	}

	metas, err := db.ListLogs()
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("len = %d, want 3", len(metas))
	}
	if metas[0].ID != "log-2" || metas[2].ID != "log-0" {
		t.Errorf("order = %s..%s, want log-2..log-0", metas[0].ID, metas[2].ID)
	}
	if len(metas[0].Cids) != 3 {
		t.Errorf("meta cids = %v", metas[0].Cids)
	}
}

func TestGetLog_NotFound(t *testing.T) {
	db := createTestStore(t)
	if _, err := db.GetLog("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteLog_NotFound(t *testing.T) {
	db := createTestStore(t)
	if err := db.DeleteLog("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOldestLogID_Empty(t *testing.T) {
	db := createTestStore(t)
	if _, err := db.OldestLogID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenStore_Factory(t *testing.T) {
	store, err := OpenStore("sqlite", tempDBPath(t))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	store.Close()

	if _, err := OpenStore("mongodb", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSaveLog_EmptyLists(t *testing.T) {
	db := createTestStore(t)

	l := &model.SavedLog{ID: "log-e", SavedAt: 1, Content: "x"}
	if res, err := db.SaveLog(l, 0); err != nil || res != SaveOK {
		t.Fatalf("save: res=%v err=%v", res, err)
	}

	got, err := db.GetLog("log-e")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Cids) != 0 || len(got.SipBookmarks) != 0 || len(got.KazimirBookmarks) != 0 {
		t.Errorf("lists = %v/%v/%v, want empty", got.Cids, got.SipBookmarks, got.KazimirBookmarks)
	}
}
