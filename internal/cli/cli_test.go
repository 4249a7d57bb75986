package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/tomato/internal/store"
)

func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--data-dir", dataDir,
		"--config", filepath.Join(dataDir, "absent.toml"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dataDir, args...)
	require.NoError(t, err, "tomato %s\n%s", strings.Join(args, " "), out)
	return out
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

// ============================================================
// Root
// ============================================================

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("test")
	for _, path := range [][]string{
		{"settings", "get"}, {"settings", "set"},
		{"task", "add"}, {"task", "set"}, {"task", "list"}, {"task", "show"}, {"task", "rm"}, {"task", "clear"},
		{"log"}, {"audit"}, {"report"}, {"export"}, {"version"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("test")
	for _, name := range []string{"config", "data-dir", "output", "log-level", "log-stderr"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
	assert.Equal(t, "o", cmd.PersistentFlags().Lookup("output").Shorthand)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "-o", "xml", "task", "list")
	require.Error(t, err)
	require.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersion(t *testing.T) {
	out := mustRun(t, t.TempDir(), "version")
	require.Contains(t, out, "tomato test")

	info := decodeJSON[versionInfo](t, mustRun(t, t.TempDir(), "-o", "json", "version"))
	require.Equal(t, "test", info.Version)
}

func TestCommandsWriteLogFile(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "--log-level", "debug", "task", "add", "--id", "t1", "first")

	data, err := os.ReadFile(filepath.Join(dir, "tomato.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "task saved")
	require.Contains(t, string(data), `"component":"store"`)
}

// ============================================================
// Settings
// ============================================================

func TestSettingsGetDefaults(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "settings", "get")
	require.Contains(t, out, "pomodoro:    25:00")
	require.Contains(t, out, "long break:  15:00")

	got := decodeJSON[store.TimerSettings](t, mustRun(t, dir, "-o", "json", "settings", "get"))
	require.Equal(t, store.DefaultSettings(), got)
}

func TestSettingsSetFlags(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "settings", "set", "--pomodoro", "50", "--short-break", "7:30")

	got := decodeJSON[store.TimerSettings](t, mustRun(t, dir, "-o", "json", "settings", "get"))
	require.Equal(t, store.TimerSettings{
		Pomodoro:   store.TimerDuration{Minutes: 50},
		ShortBreak: store.TimerDuration{Minutes: 7, Seconds: 30},
		LongBreak:  store.TimerDuration{Minutes: 15},
	}, got)
}

func TestSettingsSetJSON(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "settings", "set", "--json",
		`{"pomodoro_time":{"minutes":30,"seconds":0},"short_break_time":{"minutes":3,"seconds":0},"long_break_time":{"minutes":20,"seconds":5}}`)

	var got store.TimerSettings
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, dir, "-o", "yaml", "settings", "get")), &got))
	require.Equal(t, store.TimerDuration{Minutes: 20, Seconds: 5}, got.LongBreak)
}

func TestSettingsSetErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "settings", "set")
	require.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runCLI(t, dir, "settings", "set", "--json", `{"pomodoro_time":{"minutes":"x"}}`)
	require.Equal(t, ExitFailure, GetExitCode(err))
	require.ErrorIs(t, err, store.ErrSerialization)

	_, err = runCLI(t, dir, "settings", "set", "--pomodoro", "soon")
	require.Equal(t, ExitCommandError, GetExitCode(err))
}

// ============================================================
// Tasks
// ============================================================

func TestTaskAddAndList(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "t1", "--expected", "30", "write", "draft")
	mustRun(t, dir, "task", "add", "--id", "t2", "review")

	tasks := decodeJSON[[]store.Task](t, mustRun(t, dir, "-o", "json", "task", "list"))
	require.Equal(t, []store.Task{
		{ID: "t1", Description: "write draft", ExpectedTime: 30},
		{ID: "t2", Description: "review"},
	}, tasks)

	out := mustRun(t, dir, "task", "list")
	require.Contains(t, out, "write draft")
	require.Contains(t, out, "30m")
}

func TestTaskListEmpty(t *testing.T) {
	dir := t.TempDir()
	require.Contains(t, mustRun(t, dir, "task", "list"), "no tasks")
	require.JSONEq(t, `[]`, mustRun(t, dir, "-o", "json", "task", "list"))
}

func TestTaskAddGeneratesID(t *testing.T) {
	task := decodeJSON[store.Task](t, mustRun(t, t.TempDir(), "-o", "json", "task", "add", "something"))
	_, err := uuid.Parse(task.ID)
	require.NoError(t, err)
}

func TestTaskSetJSON(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "set", "--json", `{"id":"t1","task":"imported","expected_time":10,"worked_time":{"minutes":3,"seconds":0}}`)

	got := decodeJSON[store.Task](t, mustRun(t, dir, "-o", "json", "task", "show", "t1"))
	require.Equal(t, store.TimerDuration{Minutes: 3}, got.WorkedTime)

	_, err := runCLI(t, dir, "task", "set", "--json", `{"id":"","task":"x"}`)
	require.ErrorIs(t, err, store.ErrInvalidInput)
	require.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTaskShowMissing(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "task", "show", "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTaskRemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "a", "alpha")
	mustRun(t, dir, "task", "add", "--id", "b", "beta")
	mustRun(t, dir, "task", "add", "--id", "c", "gamma")

	mustRun(t, dir, "task", "rm", "a", "missing")
	tasks := decodeJSON[[]store.Task](t, mustRun(t, dir, "-o", "json", "task", "list"))
	require.Len(t, tasks, 2)

	_, err := runCLI(t, dir, "task", "clear")
	require.Equal(t, ExitCommandError, GetExitCode(err))

	mustRun(t, dir, "task", "clear", "--yes")
	require.JSONEq(t, `[]`, mustRun(t, dir, "-o", "json", "task", "list"))
}

// ============================================================
// Sessions
// ============================================================

func TestLogAndAudit(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "t1", "write draft")

	out := mustRun(t, dir, "log", "t1", "25")
	require.Contains(t, out, "total 25:00")
	mustRun(t, dir, "log", "t1", "5", "--audit-only")

	task := decodeJSON[store.Task](t, mustRun(t, dir, "-o", "json", "task", "show", "t1"))
	require.Equal(t, store.TimerDuration{Minutes: 25}, task.WorkedTime)

	entries := decodeJSON[[]store.AuditEntry](t, mustRun(t, dir, "-o", "json", "audit"))
	require.Len(t, entries, 2)
	var sum store.TimerDuration
	for _, e := range entries {
		sum = sum.Add(e.WorkedTime)
	}
	require.Equal(t, store.TimerDuration{Minutes: 30}, sum)

	byTask := decodeJSON[[]store.AuditEntry](t, mustRun(t, dir, "-o", "json", "audit", "--task", "t1"))
	require.Len(t, byTask, 2)

	none := decodeJSON[[]store.AuditEntry](t, mustRun(t, dir, "-o", "json", "audit", "--since", "2000-01-01", "--until", "2000-01-02"))
	require.Empty(t, none)

	require.Contains(t, mustRun(t, dir, "audit"), "t1")
}

func TestLogUnknownTask(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "log", "ghost", "25")
	require.ErrorIs(t, err, store.ErrReferentialIntegrity)
	require.Equal(t, ExitFailure, GetExitCode(err))

	_, err = runCLI(t, dir, "log", "ghost", "25", "--audit-only")
	require.ErrorIs(t, err, store.ErrReferentialIntegrity)
	require.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "t1", "write draft")
	mustRun(t, dir, "log", "t1", "25")
	mustRun(t, dir, "log", "t1", "1:30")

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, dir, "-o", "yaml", "report")), &r))
	require.Len(t, r.Days, 1)
	require.Equal(t, int64(26*60+30), r.Days[0].Seconds)
	require.Equal(t, 2, r.Days[0].Sessions)
	require.Equal(t, []store.TaskTotal{{TaskID: "t1", Description: "write draft", Seconds: 26*60 + 30, Sessions: 2}}, r.Tasks)

	out := mustRun(t, dir, "report")
	require.Contains(t, out, "Total: 26m 30s")
}

// ============================================================
// Export
// ============================================================

func TestExportCSVToStdout(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "t1", "write draft")
	mustRun(t, dir, "log", "t1", "25")

	out := mustRun(t, dir, "export")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "ID,Task ID,Task,Timestamp,Worked (s),Worked", lines[0])
	require.Contains(t, lines[1], "t1,write draft,")
	require.True(t, strings.HasSuffix(lines[1], ",1500,00:25:00"), lines[1])
}

func TestExportJSONToFile(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "task", "add", "--id", "t1", "write draft")
	mustRun(t, dir, "log", "t1", "25")

	path := filepath.Join(t.TempDir(), "audit.json")
	mustRun(t, dir, "export", "--format", "json", "--out", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Count        int   `json:"count"`
		TotalSeconds int64 `json:"total_seconds"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, 1, doc.Count)
	require.Equal(t, int64(1500), doc.TotalSeconds)
}

func TestExportInvalidFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "export", "--format", "xlsx")
	require.Equal(t, ExitCommandError, GetExitCode(err))
}

// ============================================================
// Helpers
// ============================================================

func TestParseTimerDuration(t *testing.T) {
	tests := []struct {
		in   string
		want store.TimerDuration
	}{
		{"25", store.TimerDuration{Minutes: 25}},
		{"4:30", store.TimerDuration{Minutes: 4, Seconds: 30}},
		{"0:90", store.TimerDuration{Seconds: 90}},
		{"1h5m", store.TimerDuration{Minutes: 65}},
		{"90s", store.TimerDuration{Minutes: 1, Seconds: 30}},
	}
	for _, tt := range tests {
		got, err := parseTimerDuration(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "-5m", "a:10", "10:b", "soon"} {
		_, err := parseTimerDuration(bad)
		require.Error(t, err, bad)
	}
}

func TestParseTimeArg(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1700000000", 1_700_000_000},
		{"2024-03-01T09:00:00Z", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Unix()},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()},
		{"7d", time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC).Unix()},
		{"36h", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC).Unix()},
	}
	for _, tt := range tests {
		got, err := parseTimeArg(tt.in, now)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseTimeArg("last tuesday", now)
	require.Error(t, err)
}

func TestRangeBounds(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	opts := &RangeOptions{Since: "1d", now: func() time.Time { return now }}

	since, until, err := opts.bounds()
	require.NoError(t, err)
	require.Equal(t, now.Unix()-86400, since)
	require.Equal(t, now.Unix(), until)

	opts.Until = "bogus"
	_, _, err = opts.bounds()
	require.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStoreErrorExitCodes(t *testing.T) {
	require.NoError(t, storeError("noop", nil))

	cases := map[error]int{
		store.ErrStorageUnavailable:   ExitCommandError,
		store.ErrSchema:               ExitCommandError,
		store.ErrNotFound:             ExitFailure,
		store.ErrReferentialIntegrity: ExitFailure,
		store.ErrInvalidInput:         ExitFailure,
	}
	for kind, code := range cases {
		err := storeError("op", kind)
		require.Equal(t, code, GetExitCode(err), kind.Error())
		require.ErrorIs(t, err, kind)
	}

	require.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
