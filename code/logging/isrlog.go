package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ISRTimeLayout is the wall-clock format used in ISR log records.
const ISRTimeLayout = "2006-01-02 15:04:05"

// ISRLog is the append-only service record: one START and one END line per
// serviced interrupt. It carries its own mutex so appends never contend
// with the interrupt queue's lock, and each append is flushed to disk
// before returning so the record survives whatever the controller does
// next. A failed append degrades silently; logging never blocks dispatch.
type ISRLog struct {
	mu   sync.Mutex
	path string
}

// NewISRLog truncates (or creates) the log file and writes the session
// header line.
func NewISRLog(path string) (*ISRLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to reset ISR log %s: %w", path, err)
	}
	fmt.Fprintf(f, "ISR Log Started: %d\n", time.Now().Unix())
	f.Close()

	return &ISRLog{path: path}, nil
}

// Path returns the log file location.
func (l *ISRLog) Path() string {
	return l.path
}

// LogStart records the beginning of an ISR.
func (l *ISRLog) LogStart(device string, seq int64, at time.Time) {
	l.appendLine(fmt.Sprintf("START | %s | seq=%d | %s", device, seq, at.Format(ISRTimeLayout)))
}

// LogEnd records the completion of an ISR.
func (l *ISRLog) LogEnd(device string, seq int64, at time.Time) {
	l.appendLine(fmt.Sprintf("END   | %s | seq=%d | %s", device, seq, at.Format(ISRTimeLayout)))
}

func (l *ISRLog) appendLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		GlobalLogger.LogMessage("warning", "ISR log append failed", map[string]any{
			"path":  l.path,
			"error": err.Error(),
		})
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		GlobalLogger.LogMessage("warning", "ISR log write failed", map[string]any{
			"path":  l.path,
			"error": err.Error(),
		})
		return
	}
	f.Sync()
}
