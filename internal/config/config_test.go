package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/autolabel/internal/filters"
	"github.com/joshsymonds/autolabel/internal/sender"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, filters.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, filters.DefaultTexts(), cfg.Texts())
	assert.Equal(t, sender.DefaultOptions(), cfg.ExtractOptions())
	assert.Equal(t, filters.DefaultMarkerPrefix, cfg.Settings().MarkerPrefix)
	assert.Equal(t, 4, cfg.API.RPS)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
marker:
  prefix: "al_"
waits:
  form_timeout: 2s
ui:
  from: ["Von", "From"]
`)
	t.Setenv("AUTOLABEL_LOGGING_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("devtools-url", "", "")
	flags.Bool("headless", false, "")
	require.NoError(t, flags.Parse([]string{"--devtools-url", "ws://127.0.0.1:9222/devtools/browser/x", "--headless"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "al_", cfg.Marker.Prefix)
	assert.Equal(t, 2*time.Second, cfg.Policy().FormTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Policy().PollInterval)
	assert.Equal(t, []string{"Von", "From"}, cfg.Texts().From)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", cfg.Chrome.DevToolsURL)
	assert.True(t, cfg.Chrome.Headless)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "form_timeout: 2s")
	assert.Contains(t, string(out), "prefix: al_")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero poll interval", body: "waits:\n  poll_interval: 0s\n"},
		{name: "no rps", body: "api:\n  rps: 0\n"},
		{name: "empty row selector", body: "ui:\n  rule_row_selector: \"\"\n"},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
