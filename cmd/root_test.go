package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAppliesGlobalFlags(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOSTEL_INTRAY_CONFIG_DIR", filepath.Join(tmpDir, "config"))
	t.Setenv("HOSTEL_INTRAY_STATE_DIR", filepath.Join(tmpDir, "state"))
	t.Cleanup(func() {
		flagAPIURL, flagStream, flagTimeout = "", "", ""
		flagQuiet = false
		colors.SetQuiet(false)
	})

	require.NoError(t, RootCmd.ParseFlags([]string{
		"--api-url", "https://hostel.example.edu/",
		"--transport", "WebSocket",
		"--timeout", "3s",
		"-q",
	}))
	Setup(RootCmd)

	assert.Equal(t, "https://hostel.example.edu", config.Get("api_base_url", ""))
	assert.Equal(t, "websocket", config.Get("stream_transport", ""))
	assert.Equal(t, "3s", config.Get("request_timeout", ""))
	assert.True(t, config.GetBool("quiet", false))
}

func TestHelpListsRegisteredCommandsInOrder(t *testing.T) {
	root := &cobra.Command{Use: "hostel-intray"}
	root.AddCommand(
		&cobra.Command{Use: "version", Short: "Show version information"},
		&cobra.Command{Use: "tui", Short: "Open the interactive notification feed"},
	)

	var buf bytes.Buffer
	printHelpText(&buf, root)

	out := buf.String()
	assert.Contains(t, out, "USAGE:")
	assert.Contains(t, out, "Open the interactive notification feed")
	assert.NotContains(t, out, "follow")
	assert.Less(t, strings.Index(out, "    tui"), strings.Index(out, "    version"))
}
