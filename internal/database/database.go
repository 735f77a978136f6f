package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agergec/spantrace/internal/model"
)

// LogStore manages all saved-log operations for one backend. The dialect
// supplies every database-specific SQL fragment, so one implementation
// serves both SQLite and PostgreSQL.
type LogStore struct {
	path    string
	conn    *sql.DB
	dialect Dialect
}

// Open opens an existing saved-log database with the given dialect,
// creating the schema if it is missing.
func Open(d Dialect, pathOrConnStr string) (*LogStore, error) {
	conn, err := sql.Open(d.DriverName(), d.DSN(pathOrConnStr))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &LogStore{path: pathOrConnStr, conn: conn, dialect: d}
	if err := db.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, nil
}

func (db *LogStore) createSchema() error {
	if _, err := db.conn.Exec(db.dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating span_logs table: %w", err)
	}
	if _, err := db.conn.Exec(db.dialect.CreateIndexSQL()); err != nil {
		return fmt.Errorf("creating saved_at index: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *LogStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the file path or connection string of the store.
func (db *LogStore) Path() string {
	return db.path
}

// Conn returns the underlying *sql.DB connection.
func (db *LogStore) Conn() *sql.DB {
	return db.conn
}

// SaveLog persists one saved log. Duplicate content and the capacity cap
// are reported as result codes, never as errors.
func (db *LogStore) SaveLog(log *model.SavedLog, maxLogs int) (SaveResult, error) {
	if maxLogs > 0 {
		count, err := db.CountLogs()
		if err != nil {
			return SaveOK, err
		}
		if count >= int64(maxLogs) {
			return SaveLimitReached, nil
		}
	}

	var dup int64
	err := db.conn.QueryRow(
		"SELECT COUNT(id) FROM span_logs WHERE content = "+db.dialect.Placeholder(1),
		log.Content,
	).Scan(&dup)
	if err != nil {
		return SaveOK, fmt.Errorf("checking for duplicate: %w", err)
	}
	if dup > 0 {
		return SaveDuplicate, nil
	}

	cids, err := encodeStrings(log.Cids)
	if err != nil {
		return SaveOK, err
	}
	sipBm, err := encodeInts(log.SipBookmarks)
	if err != nil {
		return SaveOK, err
	}
	kazBm, err := encodeInts(log.KazimirBookmarks)
	if err != nil {
		return SaveOK, err
	}

	_, err = db.conn.Exec(
		"INSERT INTO span_logs (id, saved_at, message_count, cid_count, cids, content, sip_bookmarks, kazimir_bookmarks) VALUES ("+
			db.placeholders(8)+")",
		log.ID, log.SavedAt, log.MessageCount, log.CidCount,
		cids, log.Content, sipBm, kazBm,
	)
	if err != nil {
		return SaveOK, fmt.Errorf("inserting saved log: %w", err)
	}
	return SaveOK, nil
}

// ListLogs returns metadata for all saved logs, newest first.
func (db *LogStore) ListLogs() ([]model.SavedLogMeta, error) {
	rows, err := db.conn.Query(
		"SELECT id, saved_at, message_count, cid_count, cids FROM span_logs ORDER BY saved_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing saved logs: %w", err)
	}
	defer rows.Close()

	var metas []model.SavedLogMeta
	for rows.Next() {
		var m model.SavedLogMeta
		var cids string
		if err := rows.Scan(&m.ID, &m.SavedAt, &m.MessageCount, &m.CidCount, &cids); err != nil {
			return nil, fmt.Errorf("scanning saved log row: %w", err)
		}
		if m.Cids, err = decodeStrings(cids); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// GetLog fetches one saved log including its raw content.
func (db *LogStore) GetLog(id string) (*model.SavedLog, error) {
	row := db.conn.QueryRow(
		"SELECT id, saved_at, message_count, cid_count, cids, content, sip_bookmarks, kazimir_bookmarks FROM span_logs WHERE id = "+
			db.dialect.Placeholder(1), id)

	var l model.SavedLog
	var cids, sipBm, kazBm string
	err := row.Scan(&l.ID, &l.SavedAt, &l.MessageCount, &l.CidCount, &cids, &l.Content, &sipBm, &kazBm)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching saved log: %w", err)
	}

	if l.Cids, err = decodeStrings(cids); err != nil {
		return nil, err
	}
	if l.SipBookmarks, err = decodeInts(sipBm); err != nil {
		return nil, err
	}
	if l.KazimirBookmarks, err = decodeInts(kazBm); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLog removes a saved log by id. ErrNotFound when the id is unknown.
func (db *LogStore) DeleteLog(id string) error {
	res, err := db.conn.Exec(
		"DELETE FROM span_logs WHERE id = "+db.dialect.Placeholder(1), id)
	if err != nil {
		return fmt.Errorf("deleting saved log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// OldestLogID returns the id of the log with the smallest saved_at.
func (db *LogStore) OldestLogID() (string, error) {
	var id string
	err := db.conn.QueryRow(
		"SELECT id FROM span_logs ORDER BY saved_at ASC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding oldest saved log: %w", err)
	}
	return id, nil
}

// CountLogs returns the number of saved logs.
func (db *LogStore) CountLogs() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(id) FROM span_logs").Scan(&count)
	return count, err
}

func (db *LogStore) placeholders(n int) string {
	s := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			s += ", "
		}
		s += db.dialect.Placeholder(i)
	}
	return s
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding string list: %w", err)
	}
	return v, nil
}

func encodeInts(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding identity list: %w", err)
	}
	return string(b), nil
}

func decodeInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var v []int
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding identity list: %w", err)
	}
	return v, nil
}
