// Package db provides database-related type definitions and interfaces.
// This package contains types used for database operations and data structures.
package db

import "time"

// WriteOp represents a queued SQL operation
type WriteOp struct {
	Query  string
	Params []any
	OpType string // "insert" for everything in this design
}

// Batch represents a group of write operations destined for one table
type Batch struct {
	Table  string
	OpType string
	Ops    []WriteOp
}

// WriteQueueInterface defines the contract for per-table write queues
type WriteQueueInterface interface {
	Add(op WriteOp)
	Flush(force ...bool) []Batch
}

// DBInterface defines the database methods the logger depends on
type DBInterface interface {
	InitWriteQueue(table string, batchSize int, flushInterval time.Duration)
	GetWriteQueue(table string) WriteQueueInterface
}
