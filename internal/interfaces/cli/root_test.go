package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

const exportJSON = `{"protocols": [
  {"id": "p1", "name": "Lote A", "startDate": "2024-01-01", "notifications": true},
  {"id": "p2", "name": "Lote B", "startDate": "2023-06-01"},
  {"id": "p3", "name": "Lote C", "startDate": "2024-02-31"}
]}`

type testEnv struct {
	dir        string
	configPath string
	exportPath string
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "iatfmon.yaml"),
		exportPath: filepath.Join(dir, "protocols.json"),
	}
	cfg := "engine:\n  window_days: 3\n  timezone: UTC\nlog:\n  level: error\n" + extraConfig
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(env.exportPath, []byte(exportJSON), 0o600))
	return env
}

func (e *testEnv) run(ctx context.Context, args ...string) (string, error) {
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRoot_RejectsUnknownOutputFormat(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(context.Background(), "summary", "--file", env.exportPath, "-o", "xml")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRoot_RejectsInvalidNow(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(context.Background(), "summary", "--file", env.exportPath, "--now", "yesterday")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRoot_InvalidConfig(t *testing.T) {
	env := newTestEnv(t, "cache:\n  size: -1\n")
	_, err := env.run(context.Background(), "summary", "--file", env.exportPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
}

func TestRoot_WindowDaysFlagOverridesConfig(t *testing.T) {
	env := newTestEnv(t, "")
	// At 2024-01-04 the nearest p1 milestone starts on 01-08, four days out.
	out, err := env.run(context.Background(), "summary", "--file", env.exportPath, "--now", "2024-01-04", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, 0, decodeSummary(t, out).Badge.Count)

	out, err = env.run(context.Background(), "summary", "--file", env.exportPath, "--now", "2024-01-04", "--window-days", "4", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, 1, decodeSummary(t, out).Badge.Count)
}

func TestVersionCmd_SkipsConfig(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/does/not/exist.yaml", "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "iatfmon "+Version)
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewSummaryCmd()
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
}

func TestCLIContext_CurrentTime(t *testing.T) {
	fixed := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	c := &CLIContext{Location: time.UTC, Now: fixed, NowFixed: true}
	assert.True(t, c.CurrentTime().Equal(fixed))

	c.NowFixed = false
	assert.WithinDuration(t, time.Now(), c.CurrentTime(), time.Minute)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"STEP", "NAME"}, [][]string{
		{"Dia 0", "Colocação"},
		{"IATF", "x", "dropped"},
		{"Dia 7/8"},
	})
	assert.Equal(t, strings.Join([]string{
		"STEP     NAME",
		"-------  ---------",
		"Dia 0    Colocação",
		"IATF     x",
		"Dia 7/8",
		"",
	}, "\n"), out)
	assert.Empty(t, FormatTable(nil, nil))
}

type summaryJSON struct {
	Dashboard struct {
		Summary struct {
			Total       int `json:"total"`
			NearbyCount int `json:"nearbyCount"`
		} `json:"summary"`
		Attention []struct {
			ProtocolID string `json:"protocolId"`
		} `json:"attention"`
		Excluded []struct {
			ProtocolID string `json:"protocolId"`
		} `json:"excluded"`
	} `json:"dashboard"`
	Badge struct {
		HasNotifications bool `json:"hasNotifications"`
		Count            int  `json:"count"`
	} `json:"badge"`
}

func decodeSummary(t *testing.T, out string) summaryJSON {
	t.Helper()
	var s summaryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	return s
}
