package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetDefaults restores the default logger to a known state between tests.
// charmbracelet/log keeps global state, so these tests do not run in
// parallel.
func resetDefaults(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetOutput(os.Stderr)
		log.SetFormatter(log.TextFormatter)
	})
}

func parseLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(line)), &parsed), "not JSON: %s", line)
	return parsed
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    log.Level
	}{
		{"default", false, false, log.InfoLevel},
		{"verbose", true, false, log.DebugLevel},
		{"quiet", false, true, log.ErrorLevel},
		{"quiet wins over verbose", true, true, log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetDefaults(t)
			Setup(tt.verbose, tt.quiet, false)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestSetup_JSONFormatter(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, false, true)
	SetOutput(&buf)
	log.Info("json test")

	parsed := parseLine(t, buf.String())
	assert.Equal(t, "info", parsed["level"])
	assert.Equal(t, "json test", parsed["msg"])
}

func TestSetup_TextFormatterResetsJSON(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, false, true)
	Setup(false, false, false)
	SetOutput(&buf)
	log.Info("text mode")

	var parsed map[string]any
	assert.Error(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed))
	assert.Contains(t, buf.String(), "text mode")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantJSON bool
		wantErr  bool
	}{
		{"", false, false},
		{"text", false, false},
		{"JSON", true, false},
		{"json", true, false},
		{"xml", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantJSON, got)
		})
	}
}

func TestNew_WithComponent(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, false, true)
	SetOutput(&buf)

	New("script").Info("loading wizard", "path", "wizards/pair.toml")

	parsed := parseLine(t, buf.String())
	assert.Equal(t, "script", parsed["prefix"])
	assert.Equal(t, "loading wizard", parsed["msg"])
	assert.Equal(t, "wizards/pair.toml", parsed["path"])
}

func TestNew_EmptyComponent(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, false, true)
	SetOutput(&buf)

	New("").Info("no prefix")

	_, hasPrefix := parseLine(t, buf.String())["prefix"]
	assert.False(t, hasPrefix)
}

func TestForWizard(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, false, true)
	SetOutput(&buf)

	ForWizard("pair").Info("transition", "kind", "forward")

	parsed := parseLine(t, buf.String())
	assert.Equal(t, "engine", parsed["prefix"])
	assert.Equal(t, "pair", parsed["wizard"])
	assert.Equal(t, "forward", parsed["kind"])
}

func TestNew_LoggerRespectsLevel(t *testing.T) {
	resetDefaults(t)

	var buf bytes.Buffer
	Setup(false, true, false)
	SetOutput(&buf)

	logger := New("cli")
	logger.Info("hidden")
	logger.Warn("hidden too")
	logger.Error("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestRedirect(t *testing.T) {
	resetDefaults(t)

	Setup(false, false, false)
	var buf bytes.Buffer
	restore := Redirect(&buf)
	New("tui").Info("while the view is up")
	restore()
	log.Info("after restore")

	assert.Contains(t, buf.String(), "while the view is up")
	assert.NotContains(t, buf.String(), "after restore")
}
