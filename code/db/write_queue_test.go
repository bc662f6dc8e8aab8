package db

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	typesdb "github.com/Voltaic314/IRQWave/code/types/db"
)

func insertOp(i int) typesdb.WriteOp {
	return typesdb.WriteOp{
		Query:  "INSERT INTO isr_history (seq) VALUES (?)",
		Params: []any{i},
		OpType: "insert",
	}
}

func TestFlushIsNoOpBelowThreshold(t *testing.T) {
	wq := NewWriteQueue("isr_history", 5, time.Second)

	wq.Add(insertOp(1))
	wq.Add(insertOp(2))

	assert.False(t, wq.IsReadyToWrite())
	assert.Nil(t, wq.Flush())
}

func TestBatchThresholdMarksReady(t *testing.T) {
	wq := NewWriteQueue("isr_history", 3, time.Second)

	for i := 0; i < 3; i++ {
		wq.Add(insertOp(i))
	}

	require.True(t, wq.IsReadyToWrite())

	batches := wq.Flush()
	require.Len(t, batches, 1)
	assert.Equal(t, "isr_history", batches[0].Table)
	assert.Equal(t, "insert", batches[0].OpType)
	assert.Len(t, batches[0].Ops, 3)
}

func TestForceFlushDrainsPartialQueue(t *testing.T) {
	wq := NewWriteQueue("audit_log", 50, time.Second)

	wq.Add(insertOp(1))

	batches := wq.Flush(true)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Ops, 1)

	// Drained; forcing again yields nothing.
	assert.Nil(t, wq.Flush(true))
}

func TestFlushResetsReadyState(t *testing.T) {
	wq := NewWriteQueue("audit_log", 2, time.Second)

	wq.Add(insertOp(1))
	wq.Add(insertOp(2))
	require.True(t, wq.IsReadyToWrite())

	wq.Flush()
	assert.False(t, wq.IsReadyToWrite())

	// A fresh add after the flush starts a new batch from scratch.
	wq.Add(insertOp(3))
	assert.False(t, wq.IsReadyToWrite())
}

func TestFlushIntervalAccessors(t *testing.T) {
	wq := NewWriteQueue("audit_log", 10, time.Second)

	assert.Equal(t, time.Second, wq.GetFlushInterval())
	wq.SetFlushInterval(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, wq.GetFlushInterval())
}

func TestConcurrentAddsAllSurviveFlush(t *testing.T) {
	wq := NewWriteQueue("isr_history", 1_000_000, time.Second)

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				wq.Add(insertOp(w*perWriter + i))
			}
		}(w)
	}
	wg.Wait()

	batches := wq.Flush(true)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Ops, writers*perWriter)

	seen := make(map[string]bool)
	for _, op := range batches[0].Ops {
		key := fmt.Sprint(op.Params[0])
		require.False(t, seen[key], "op %s drained twice", key)
		seen[key] = true
	}
}
