package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/autolabel/internal/failure"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestExtractCommand(t *testing.T) {
	page := writeFile(t, "message.html", `<html><body>
<div class="hP">Weekly digest</div>
<div class="gE"><span class="gD" email="jane@example.com" name="Jane Doe">Jane Doe</span></div>
</body></html>`)

	out, err := execute(t, "extract", "--html", page)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com\n", out)

	out, err = execute(t, "extract", "--html", page, "--origin", "span.gD")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com\n", out)
}

func TestExtractCommandWithoutSender(t *testing.T) {
	page := writeFile(t, "message.html", `<html><body><p>nothing to see</p></body></html>`)

	_, err := execute(t, "extract", "--html", page)
	assert.ErrorIs(t, err, failure.ErrNoSenderDetected)

	_, err = execute(t, "extract", "--html", page, "--origin", "#missing")
	assert.ErrorContains(t, err, `no element matches "#missing"`)
}

func TestConfigCommand(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "marker:\n  prefix: tag_\n")

	out, err := execute(t, "config", "--config", cfg, "--marker-prefix", "flag_")
	require.NoError(t, err)
	assert.Contains(t, out, "prefix: flag_")

	out, err = execute(t, "config", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "prefix: tag_")
}

func TestVerifyRejectsUnknownSource(t *testing.T) {
	_, err := execute(t, "verify", "--label", "Newsletter", "--source", "imap")
	assert.ErrorContains(t, err, `unknown source "imap"`)
}

func TestVerifyRequiresLabel(t *testing.T) {
	_, err := execute(t, "verify")
	assert.Error(t, err)
}
