package tables

import (
	"github.com/Voltaic314/IRQWave/code/db"
)

// ISRHistoryTable defines the schema for the "isr_history" table: one row
// per serviced interrupt, written after the END record.
type ISRHistoryTable struct{}

// Name returns the name of the history table.
func (t ISRHistoryTable) Name() string {
	return "isr_history"
}

// Schema returns the DuckDB-compatible schema definition.
func (t ISRHistoryTable) Schema() string {
	return `
		id VARCHAR PRIMARY KEY,
		device VARCHAR NOT NULL CHECK(device IN ('Keyboard', 'Mouse', 'Printer')),
		seq BIGINT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		duration_ms BIGINT NOT NULL
	`
}

// Init creates the history table if it doesn't exist.
func (t ISRHistoryTable) Init(db *db.DB) error {
	return db.CreateTable(t.Name(), t.Schema())
}
