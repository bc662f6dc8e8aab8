package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	InitLogger("") // defaults, UDP-only
	os.Exit(m.Run())
}

func TestNewISRLogWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isr_log.txt")

	log, err := NewISRLog(path)
	require.NoError(t, err)
	assert.Equal(t, path, log.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ISR Log Started: "))
}

func TestISRLogRecordsStartAndEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isr_log.txt")
	log, err := NewISRLog(path)
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 12, 30, 45, 0, time.Local)
	log.LogStart("Keyboard", 1, at)
	log.LogEnd("Keyboard", 1, at.Add(300*time.Millisecond))

	lines := readLines(t, path)
	require.Len(t, lines, 3) // header + two records
	assert.Equal(t, "START | Keyboard | seq=1 | 2025-06-01 12:30:45", lines[1])
	assert.Equal(t, "END   | Keyboard | seq=1 | 2025-06-01 12:30:45", lines[2])
}

func TestISRLogPairsRecordsPerSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isr_log.txt")
	log, err := NewISRLog(path)
	require.NoError(t, err)

	now := time.Now()
	for seq := int64(1); seq <= 5; seq++ {
		log.LogStart("Mouse", seq, now)
		log.LogEnd("Mouse", seq, now)
	}

	starts := make(map[string]int)
	ends := make(map[string]int)
	for _, line := range readLines(t, path)[1:] {
		fields := strings.Split(line, " | ")
		require.Len(t, fields, 4)
		key := fields[1] + "/" + fields[2]
		switch strings.TrimSpace(fields[0]) {
		case "START":
			starts[key]++
		case "END":
			ends[key]++
		default:
			t.Fatalf("unexpected record kind in %q", line)
		}
	}
	assert.Equal(t, starts, ends)
	for key, n := range starts {
		assert.Equal(t, 1, n, "duplicate records for %s", key)
	}
}

func TestNewISRLogTruncatesPreviousSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isr_log.txt")

	log, err := NewISRLog(path)
	require.NoError(t, err)
	log.LogStart("Printer", 1, time.Now())
	log.LogEnd("Printer", 1, time.Now())

	_, err = NewISRLog(path)
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "ISR Log Started: "))
}

func TestISRLogSurvivesAppendFailure(t *testing.T) {
	log := &ISRLog{path: filepath.Join(t.TempDir(), "missing", "isr_log.txt")}
	// Directory doesn't exist; the append must degrade silently.
	log.LogStart("Keyboard", 1, time.Now())
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
