package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_Verbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("retrieved %d chunks", 3) }, "[DEBUG] retrieved 3 chunks\n"},
		{"info", func() { Info("indexed %s", "notes.pdf") }, "[INFO] indexed notes.pdf\n"},
		{"warn", func() { Warn("skipping %s", "big.bin") }, "[WARN] skipping big.bin\n"},
		{"error", func() { Error("embed failed") }, "[ERROR] embed failed\n"},
		{"section", func() { Section("Retrieve") }, "\n=== Retrieve ===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevels_Quiet(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	assert.Empty(t, buf.String())

	Error("ingest %s failed", "doc-1")
	assert.Equal(t, "[ERROR] ingest doc-1 failed\n", buf.String())
}

func TestConcurrentWritesKeepLinesWhole(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("worker %02d done", i)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.Regexp(t, `^\[DEBUG\] worker \d{2} done$`, line)
	}
}
