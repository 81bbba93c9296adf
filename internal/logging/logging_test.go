package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOSTEL_INTRAY_CONFIG_DIR", filepath.Join(tmp, "config"))
	t.Setenv("HOSTEL_INTRAY_STATE_DIR", filepath.Join(tmp, "state"))
	config.Load()
	return tmp
}

func lastLogLine(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	data, err := os.ReadFile(filepath.Join(dir, entries[len(entries)-1].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines[len(lines)-1]
}

func TestFromGlobalConfigLevels(t *testing.T) {
	setupTest(t)

	t.Setenv("HOSTEL_INTRAY_LOGGING_ENABLED", "true")
	t.Setenv("HOSTEL_INTRAY_LOGGING_LEVEL", "warn")
	t.Setenv("HOSTEL_INTRAY_LOGGING_MAX_FILES", "5")
	config.Load()
	cfg := FromGlobalConfig()
	require.True(t, cfg.Enabled)
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.Equal(t, os.Getpid(), cfg.PID)

	t.Setenv("HOSTEL_INTRAY_QUIET", "true")
	config.Load()
	assert.Equal(t, "error", FromGlobalConfig().Level)

	t.Setenv("HOSTEL_INTRAY_DEBUG", "true")
	config.Load()
	assert.Equal(t, "debug", FromGlobalConfig().Level, "debug wins over quiet")
}

func TestLogDirUnderStateDir(t *testing.T) {
	setupTest(t)

	logDir, err := LogDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(config.Get("state_dir", ""), "logs"), logDir)

	info, err := os.Stat(logDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestInitDisabledIsNoop(t *testing.T) {
	logger, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, noopLogger{}, logger)
	logger.Info("ignored")
	assert.NoError(t, logger.Shutdown())
}

func TestInitWritesJSONFile(t *testing.T) {
	tmp := t.TempDir()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Command = "follow"
	cfg.Dir = tmp

	logger, err := Init(cfg)
	require.NoError(t, err)
	logger.Info("page loaded", "count", 20, "auth_token", "abc123")
	require.NoError(t, logger.Shutdown())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, filePrefix))
	assert.Contains(t, name, fmt.Sprintf("_PID%d_", os.Getpid()))
	assert.True(t, strings.HasSuffix(name, "_follow.log"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lastLogLine(t, tmp)), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "page loaded", entry["msg"])
	assert.Equal(t, float64(20), entry["count"])
	assert.Equal(t, redacted, entry["auth_token"])
	assert.Equal(t, "follow", entry["command"])
}

func TestWithAddsFields(t *testing.T) {
	tmp := t.TempDir()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Dir = tmp

	logger, err := Init(cfg)
	require.NoError(t, err)
	logger.With("component", "stream").Info("connected")
	require.NoError(t, logger.Shutdown())

	assert.Contains(t, lastLogLine(t, tmp), `"component":"stream"`)
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(&buf, "warn")

	logger.Info("quiet")
	logger.Warn("loud", "password", "hunter2")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.NotContains(t, out, "hunter2")
}

func TestRedactor(t *testing.T) {
	r := newRedactor()

	assert.Equal(t, []any{"PASSWORD", redacted}, r.redact([]any{"PASSWORD", "x"}))
	assert.Equal(t, []any{"api-token", redacted}, r.redact([]any{"api-token", "x"}))
	assert.Equal(t, []any{"Authorization", redacted}, r.redact([]any{"Authorization", "Bearer x"}))
	assert.Equal(t, []any{"author", "x"}, r.redact([]any{"author", "x"}))
	assert.Equal(t, []any{"secretary", "x"}, r.redact([]any{"secretary", "x"}))
	assert.Equal(t, []any{"token", redacted, "extra"}, r.redact([]any{"token", "x", "extra"}))
	assert.Empty(t, r.redact(nil))
}

func TestRotationRemovesOldest(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s2025010%d_120000_PID1_x.log", filePrefix, i))
		require.NoError(t, os.WriteFile(path, nil, 0600))
		mtime := time.Now().Add(-time.Duration(3-i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	foreign := filepath.Join(dir, "other.log")
	require.NoError(t, os.WriteFile(foreign, nil, 0600))

	require.NoError(t, rotate(dir, 2))

	_, err := os.Stat(filepath.Join(dir, filePrefix+"20250100_120000_PID1_x.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, filePrefix+"20250102_120000_PID1_x.log"))
	assert.NoError(t, err)
	_, err = os.Stat(foreign)
	assert.NoError(t, err)
}

func TestGlobalLogger(t *testing.T) {
	setupTest(t)
	t.Setenv("HOSTEL_INTRAY_LOGGING_ENABLED", "true")
	config.Load()

	require.NoError(t, InitGlobal("watch"))
	t.Cleanup(func() { _ = ShutdownGlobal() })

	path := CurrentLogFile()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, "_watch.log"))

	Warn("global warning", "count", 1)
	require.NoError(t, ShutdownGlobal())
	assert.Empty(t, CurrentLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "global warning")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, clog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, clog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, clog.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, clog.InfoLevel, parseLevel("unknown"))
}
