package colors

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		SetQuiet(false)
		SetDebug(false)
		SetLogger(nil)
	})
	return &out, &errOut
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.lines = append(r.lines, "debug:"+msg) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.lines = append(r.lines, "info:"+msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.lines = append(r.lines, "warn:"+msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.lines = append(r.lines, "error:"+msg) }

func TestError(t *testing.T) {
	_, errOut := captureOutput(t)

	Error("something went wrong")

	assert.Contains(t, errOut.String(), "Error:")
	assert.Contains(t, errOut.String(), "something went wrong")
	assert.Contains(t, errOut.String(), Red)
}

func TestSuccessAndInfoGoToStdout(t *testing.T) {
	out, errOut := captureOutput(t)

	Success("operation completed")
	Info("3 unread")

	assert.Contains(t, out.String(), checkmark)
	assert.Contains(t, out.String(), "operation completed")
	assert.Contains(t, out.String(), "3 unread")
	assert.Empty(t, errOut.String())
}

func TestQuietSuppressesInfoButNotWarnings(t *testing.T) {
	out, errOut := captureOutput(t)
	SetQuiet(true)

	Info("hidden")
	Success("hidden too")
	Warning("still shown")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "still shown")
}

func TestDebugRequiresFlag(t *testing.T) {
	_, errOut := captureOutput(t)

	Debug("invisible")
	assert.Empty(t, errOut.String())

	SetDebug(true)
	Debug("visible")
	assert.Contains(t, errOut.String(), "Debug:")
	assert.Contains(t, errOut.String(), "visible")
}

func TestLoggerMirrorsConsoleOutput(t *testing.T) {
	captureOutput(t)
	rec := &recordingLogger{}
	SetLogger(rec)

	Error("e")
	Warning("w")
	Info("i")

	assert.Equal(t, []string{"error:e", "warn:w", "info:i"}, rec.lines)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

func TestWriteFailureReportsOnce(t *testing.T) {
	_, errOut := captureOutput(t)
	SetOutput(failingWriter{}, nil)

	Info("lost")

	assert.Contains(t, errOut.String(), "failed to print message")
}
