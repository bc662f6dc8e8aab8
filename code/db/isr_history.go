package db

import (
	"time"

	"github.com/google/uuid"
)

// RecordService journals one completed ISR into the isr_history table via
// the table's write queue. Fire-and-forget: history is an audit artifact,
// not part of the dispatch contract.
func (db *DB) RecordService(device string, seq int64, started, completed time.Time) {
	query := `
		INSERT INTO isr_history (id, device, seq, started_at, completed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	db.QueueWrite("isr_history", query,
		uuid.New().String(), device, seq, started, completed, completed.Sub(started).Milliseconds())
}
