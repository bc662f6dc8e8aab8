package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	typesdb "github.com/Voltaic314/IRQWave/code/types/db"
	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn   *sql.DB
	ctx    context.Context
	cancel context.CancelFunc
	wqMap  map[string]*WriteQueue
}

// NewDB initializes the DuckDB connection without any write queues.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	db := &DB{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		wqMap:  make(map[string]*WriteQueue),
	}

	return db, nil
}

// InitWriteQueue initializes a write queue for a specific table.
func (db *DB) InitWriteQueue(table string, batchSize int, flushInterval time.Duration) {
	wq := NewWriteQueue(table, batchSize, flushInterval)
	db.wqMap[table] = wq
	// Start a listener for this new queue
	go db.startQueueListener(table, wq)
}

// Close shuts down all write queues and DB connection.
func (db *DB) Close() {
	for tableName, wq := range db.wqMap {
		db.flushWriteQueue(wq, tableName, true)
	}

	db.cancel()
	if db.conn != nil {
		db.conn.Close()
	}
}

// Query runs a read query after flushing pending writes for the given table.
func (db *DB) Query(table string, query string, params ...any) (*sql.Rows, error) {
	if wq, ok := db.wqMap[table]; ok {
		// Flush first so the read sees every queued write.
		db.flushWriteQueue(wq, table, true)
	}
	return db.conn.QueryContext(db.ctx, query, params...)
}

// Write runs a direct write query (e.g. schema setup).
func (db *DB) Write(query string, params ...any) error {
	_, err := db.conn.ExecContext(db.ctx, query, params...)
	return err
}

func (db *DB) flushWriteQueue(wq *WriteQueue, tableName string, force bool) {
	batches := wq.Flush(force)
	for _, b := range batches {
		qs := make([]string, len(b.Ops))
		ps := make([][]any, len(b.Ops))
		for i, op := range b.Ops {
			qs[i] = op.Query
			ps[i] = op.Params
		}
		if err := db.WriteBatch(map[string][]string{tableName: qs}, map[string][][]any{tableName: ps}); err != nil {
			fmt.Printf("❌ Database batch execution failed for table %s: %v\n", tableName, err)
		}
	}
}

// QueueWrite enqueues an insert for batched execution. Crossing the batch
// threshold flushes AND executes right here; an under-filled queue keeps
// waiting for its timer.
func (db *DB) QueueWrite(tableName, query string, params ...any) {
	if wq, ok := db.wqMap[tableName]; ok {
		wq.Add(typesdb.WriteOp{
			Query:  query,
			Params: params,
			OpType: "insert",
		})
		db.flushWriteQueue(wq, tableName, false)
	}
}

// CreateTable creates a table if it doesn't exist.
func (db *DB) CreateTable(tableName string, schema string) error {
	query := "CREATE TABLE IF NOT EXISTS " + tableName + " (" + schema + ")"
	return db.Write(query)
}

// DropTable removes a table if it exists.
func (db *DB) DropTable(tableName string) error {
	query := "DROP TABLE IF EXISTS " + tableName
	return db.Write(query)
}

// WriteBatch exposes batchExecute for use by external modules.
func (db *DB) WriteBatch(tableQueries map[string][]string, tableParams map[string][][]any) error {
	return batchExecute(db.conn, tableQueries, tableParams)
}

// GetWriteQueue returns the write queue for a given table.
func (db *DB) GetWriteQueue(table string) typesdb.WriteQueueInterface {
	if wq, ok := db.wqMap[table]; ok {
		return wq
	}
	return nil
}

// ForceFlushTable forces a flush of the write queue for a specific table
func (db *DB) ForceFlushTable(tableName string) {
	if wq, ok := db.wqMap[tableName]; ok {
		db.flushWriteQueue(wq, tableName, true)
	}
}

// batchExecute flushes all pending write queries in a single transaction.
func batchExecute(conn *sql.DB, tableQueries map[string][]string, tableParams map[string][][]any) error {
	if len(tableQueries) == 0 {
		return nil
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	// Ensure rollback happens on error
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for table, queries := range tableQueries {
		params := tableParams[table]
		for i, query := range queries {
			_, err = tx.Exec(query, params[i]...)
			if err != nil {
				return fmt.Errorf("failed to execute query for table %s: %w", table, err)
			}
		}
	}

	err = tx.Commit()
	return err
}

func (db *DB) startQueueListener(tableName string, queue *WriteQueue) {
	timer := time.NewTimer(queue.GetFlushInterval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			db.flushWriteQueue(queue, tableName, true)
			timer.Reset(queue.GetFlushInterval())
		case <-db.ctx.Done():
			return
		}
	}
}
