package cfdpd

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/utils"
	_ "github.com/mattn/go-sqlite3"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT NOT NULL,
	source_id INTEGER NOT NULL,
	seq_num INTEGER NOT NULL,
	source_file TEXT NOT NULL,
	dest_file TEXT NOT NULL,
	condition TEXT NOT NULL,
	delivery TEXT NOT NULL,
	file_status TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	received INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);`

// Record is one finished transaction in the archive.
type Record struct {
	TransactionId string
	SourceId      uint32
	SeqNum        uint32
	SourceFile    string
	DestFile      string
	Condition     string
	Delivery      string
	FileStatus    string
	FileSize      uint64
	Received      uint64
	FinishedAt    time.Time
}

// History archives finished transactions in a sqlite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the archive at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) String() string {
	return "cfdp-history"
}

// Record appends one transaction. A nil History discards it.
func (h *History) Record(r Record) error {
	if h == nil {
		return nil
	}
	_, err := h.db.Exec(
		`INSERT INTO transactions (transaction_id, source_id, seq_num, source_file, dest_file,
			condition, delivery, file_status, file_size, received, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TransactionId, r.SourceId, r.SeqNum, r.SourceFile, r.DestFile,
		r.Condition, r.Delivery, r.FileStatus, r.FileSize, r.Received, utils.MakeTimestamp(r.FinishedAt),
	)
	return err
}

// List returns the newest limit records, newest first. A limit <= 0 returns all.
func (h *History) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.Query(
		`SELECT transaction_id, source_id, seq_num, source_file, dest_file,
			condition, delivery, file_status, file_size, received, finished_at
		FROM transactions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Record, 0)
	for rows.Next() {
		var r Record
		var finished int64
		err := rows.Scan(&r.TransactionId, &r.SourceId, &r.SeqNum, &r.SourceFile, &r.DestFile,
			&r.Condition, &r.Delivery, &r.FileStatus, &r.FileSize, &r.Received, &finished)
		if err != nil {
			return nil, err
		}
		r.FinishedAt = time.UnixMilli(finished)
		ret = append(ret, r)
	}
	return ret, rows.Err()
}

func (h *History) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}
