package db

import (
	"sync"
	"time"

	typesdb "github.com/Voltaic314/IRQWave/code/types/db"
)

// WriteQueue buffers insert operations for a single table so the hot path
// never waits on DuckDB. Everything in this design is a flat insert
// stream; there is no path-keyed batching to worry about.
type WriteQueue struct {
	mu           sync.Mutex
	tableName    string
	queue        []typesdb.WriteOp
	lastFlushed  time.Time
	batchSize    int
	flushTimer   time.Duration // interval the DB-side listener flushes on
	readyToWrite bool          // indicates if queue is ready to be flushed
	isWriting    bool          // prevents concurrent flushes
}

// NewWriteQueue creates a new write queue for a specific table
func NewWriteQueue(tableName string, batchSize int, flushTimer time.Duration) *WriteQueue {
	return &WriteQueue{
		tableName:   tableName,
		queue:       make([]typesdb.WriteOp, 0, batchSize),
		lastFlushed: time.Now(),
		batchSize:   batchSize,
		flushTimer:  flushTimer,
	}
}

// Add queues a new operation
func (wq *WriteQueue) Add(op typesdb.WriteOp) {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	wq.queue = append(wq.queue, op)
	if len(wq.queue) >= wq.batchSize {
		wq.readyToWrite = true
	}
}

// IsReadyToWrite returns whether the queue is ready to be flushed
func (wq *WriteQueue) IsReadyToWrite() bool {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return wq.readyToWrite
}

// GetFlushInterval returns the current flush interval
func (wq *WriteQueue) GetFlushInterval() time.Duration {
	return wq.flushTimer
}

// SetFlushInterval allows changing the flush interval
func (wq *WriteQueue) SetFlushInterval(interval time.Duration) {
	wq.mu.Lock()
	wq.flushTimer = interval
	wq.mu.Unlock()
}

// Flush processes all queued operations and returns the batches. Without
// force it is a no-op until the batch threshold has been crossed.
func (wq *WriteQueue) Flush(force ...bool) []typesdb.Batch {
	wq.mu.Lock()
	if wq.isWriting {
		wq.mu.Unlock()
		return nil
	}
	shouldForce := len(force) > 0 && force[0]
	if !shouldForce && !wq.readyToWrite {
		wq.mu.Unlock()
		return nil
	}
	wq.isWriting = true
	wq.readyToWrite = false
	wq.mu.Unlock()

	wq.mu.Lock()
	if len(wq.queue) == 0 {
		wq.isWriting = false
		wq.mu.Unlock()
		return nil
	}
	queue := wq.queue
	wq.queue = nil
	wq.lastFlushed = time.Now()
	wq.isWriting = false
	wq.mu.Unlock()

	// One batch covers every drained op; they are all plain inserts.
	batch := typesdb.Batch{
		Table:  wq.tableName,
		OpType: "insert",
		Ops:    queue,
	}
	return []typesdb.Batch{batch}
}
