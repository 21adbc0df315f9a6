package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a debug-level logger that writes through t.Log, so
// output only shows for failing or verbose runs. Events logged after the test
// finishes, e.g. by a released apartment worker, are dropped.
func NewTestLogger(t testing.TB) zerolog.Logger {
	w := &tbWriter{t: t}
	t.Cleanup(w.close)
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}).Level(zerolog.DebugLevel)
}

type tbWriter struct {
	mu   sync.Mutex
	t    testing.TB
	done bool
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.done {
		w.t.Log(string(bytes.TrimRight(p, "\n")))
	}
	return len(p), nil
}

func (w *tbWriter) close() {
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()
}

// LogBuffer collects JSON log events. It is safe for use from apartment
// workers and helper goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCapturingLogger returns a debug-level JSON logger and the buffer it
// writes to.
func NewCapturingLogger() (zerolog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return zerolog.New(buf).Level(zerolog.DebugLevel), buf
}
