package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/durabrake/findash/internal/snapshot/snapshottest"
	_ "github.com/durabrake/findash/testing"
)

// writeSnapshots materialises the fixture tree under a temp dir.
func writeSnapshots(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, file := range snapshottest.FS() {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, file.Data, 0o600))
	}
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "error")
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPeriodsCommand(t *testing.T) {
	dir := writeSnapshots(t)
	out, err := run(t, "", "periods", "--data-dir", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "25.12")
	assert.Contains(t, lines[0], "December 2025")
	assert.Contains(t, lines[0], "*")
	assert.Contains(t, lines[2], "25.10")

	out, err = run(t, "", "periods", "--json", "--data-dir", dir)
	require.NoError(t, err)
	var payload struct {
		Periods []struct {
			Period  string `json:"period"`
			Current bool   `json:"current"`
		} `json:"periods"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Periods, 3)
	assert.True(t, payload.Periods[0].Current)
}

func TestDeriveSection(t *testing.T) {
	dir := writeSnapshots(t)
	out, err := run(t, "", "derive", "25.12", "summary", "--data-dir", dir)
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.NotEmpty(t, summary)

	_, err = run(t, "", "derive", "25.12", "forecast", "--data-dir", dir)
	assert.ErrorContains(t, err, `unknown section "forecast"`)

	_, err = run(t, "", "derive", "2025-12", "--data-dir", dir)
	assert.Error(t, err)
}

func TestDeriveAllListsUnavailableSections(t *testing.T) {
	dir := writeSnapshots(t)
	out, err := run(t, "", "derive", "25.10", "--data-dir", dir)
	require.NoError(t, err)
	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Contains(t, all, "summary")
	assert.Contains(t, all, "nwc")

	var unavailable []string
	require.NoError(t, json.Unmarshal(all["unavailable"], &unavailable))
	assert.Contains(t, unavailable, "customers")
	assert.Contains(t, unavailable, "backlog")
}

func TestReconcileCommand(t *testing.T) {
	dir := writeSnapshots(t)
	out, err := run(t, "", "reconcile", "25.12", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "SECTION")
	assert.Contains(t, out, "25.12:")
	assert.Contains(t, out, "outside tolerance")
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, "correct horse\n", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))

	_, err = run(t, "\n", "hash-password")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "findash dev"))
}

func TestJobsTriggerRejectsUnknownJob(t *testing.T) {
	_, err := run(t, "", "jobs", "trigger", "rebuild")
	assert.Error(t, err)
}

func TestJobsTriggerRejectsBadPeriod(t *testing.T) {
	_, err := run(t, "", "jobs", "trigger", "warmup", "--period", "2025-12")
	assert.ErrorContains(t, err, "--period")
}

func TestParsePeriods(t *testing.T) {
	keys, err := parsePeriods([]string{"25.11", "25.12"})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "25.12", keys[1].String())
}

func TestWriteQueueInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeQueueInfo(&buf, &asynq.QueueInfo{Queue: "default", Pending: 4, Failed: 1}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "FAILED TODAY")
	assert.Equal(t, []string{"default", "4", "0", "0", "0", "1", "false"}, strings.Fields(lines[1]))
}
