package logging

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ConsoleRespectsVerbose(t *testing.T) {
	var quiet, loud bytes.Buffer

	New(Config{Console: &quiet}).Debug("hidden detail")
	New(Config{Console: &loud, Verbose: true}).Debug("shown detail")

	assert.NotContains(t, quiet.String(), "hidden detail")
	assert.Contains(t, loud.String(), "shown detail")
}

func TestLogger_HistoryKeepsDebugWithoutConsole(t *testing.T) {
	l := New(Config{})
	l.Debug("opened store", "path", "/tmp/am.db")

	history := l.History()
	require.Len(t, history, 1)
	assert.Contains(t, history[0], "opened store")
	assert.Contains(t, history[0], "path=/tmp/am.db")
}

func TestLogger_HistoryIsBounded(t *testing.T) {
	l := New(Config{BufferSize: 3})
	for i := 0; i < 5; i++ {
		l.Info(fmt.Sprintf("entry-%d", i))
	}
	history := l.History()
	require.Len(t, history, 3)
	assert.Contains(t, history[0], "entry-2")
	assert.Contains(t, history[2], "entry-4")
}

func TestLogger_WriteCrashLog(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{CrashDir: dir, RunID: "run-1", Version: "0.1.0"})
	l.Warn("about to fail")
	l.Note("✓ Project registered")

	path, err := l.WriteCrashLog("panic: boom")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "=== am CRASH LOG ===")
	assert.Contains(t, text, "Run ID: run-1")
	assert.Contains(t, text, "Reason: panic: boom")
	assert.Contains(t, text, "about to fail")
	assert.Contains(t, text, "OUTPUT ✓ Project registered")
}

func TestLogger_GeneratesRunID(t *testing.T) {
	a, b := New(Config{}), New(Config{})
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
