package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		value    string
		expLevel slog.Level
	}{
		{value: "debug", expLevel: slog.LevelDebug},
		{value: " WARN ", expLevel: slog.LevelWarn},
		{value: "error", expLevel: slog.LevelError},
		{value: "info", expLevel: slog.LevelInfo},
		{value: "", expLevel: slog.LevelInfo},
		{value: "verbose", expLevel: slog.LevelInfo},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			assert.Equal(t, testCase.expLevel, ParseLevel(testCase.value))
		})
	}
}

func TestNewRunLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	started := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

	logger, filePath, closeFile, err := NewRunLogger(Options{
		Dir:   dir,
		Level: "info",
		JSON:  true,
		Now:   func() time.Time { return started },
	})
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, filepath.Join(dir, "03_07_2024_14_05_09.log"), filePath)

	logger.Debug("hidden")
	logger.Info("entered the data ingestion component", slog.String("run_id", "abc"))
	assert.Nil(t, closeFile())

	data, err := os.ReadFile(filePath)
	if !assert.Nil(t, err) {
		return
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if !assert.Len(t, lines, 1) {
		return
	}

	var entry map[string]interface{}
	if !assert.Nil(t, json.Unmarshal([]byte(lines[0]), &entry)) {
		return
	}
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "entered the data ingestion component", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Contains(t, entry, "source")
	assert.Contains(t, entry, "time")
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Level: "warn"}).Warn("careful")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "source=")
}
