package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/tomato/internal/store"
)

func unix(y int, m time.Month, d, h, min int) int64 {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC).Unix()
}

func sampleData() ([]store.AuditEntry, map[string]string) {
	entries := []store.AuditEntry{
		{ID: 1, TaskID: "t1", WorkedTime: store.TimerDuration{Minutes: 25}, Timestamp: unix(2024, 3, 1, 9, 0)},
		{ID: 2, TaskID: "t2", WorkedTime: store.TimerDuration{Minutes: 5, Seconds: 30}, Timestamp: unix(2024, 3, 1, 10, 30)},
		{ID: 3, TaskID: "gone", WorkedTime: store.TimerDuration{Minutes: 65}, Timestamp: unix(2024, 3, 2, 0, 0)},
	}
	tasks := map[string]string{
		"t1": "write draft",
		"t2": `review "draft", part 2`,
	}
	return entries, tasks
}

// ============================================================
// CSV
// ============================================================

func TestWriteCSVGolden(t *testing.T) {
	entries, tasks := sampleData()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries, tasks))

	g := goldie.New(t)
	g.Assert(t, "audit_csv", buf.Bytes())
}

func TestToCSV(t *testing.T) {
	entries, tasks := sampleData()
	path := filepath.Join(t.TempDir(), "audit.csv")
	require.NoError(t, ToCSV(entries, tasks, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, `review "draft", part 2`, records[2][2])
	require.Equal(t, "Unknown", records[3][2])
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestToCSVBadPath(t *testing.T) {
	require.Error(t, ToCSV(nil, nil, "/nonexistent/dir/file.csv"))
}

// ============================================================
// JSON
// ============================================================

func TestWriteJSON(t *testing.T) {
	entries, tasks := sampleData()
	exportedAt := time.Date(2024, 3, 3, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, entries, tasks, exportedAt))

	var doc jsonExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, "2024-03-03T11:00:00Z", doc.ExportedAt)
	require.Equal(t, 3, doc.Count)
	require.Equal(t, int64(1500+330+3900), doc.TotalSeconds)
	require.Equal(t, jsonEntry{
		ID:         2,
		TaskID:     "t2",
		Task:       `review "draft", part 2`,
		Timestamp:  "2024-03-01T10:30:00Z",
		WorkedSec:  330,
		WorkedTime: "00:05:30",
	}, doc.Entries[1])
}

func TestWriteJSONEmptyHasEntriesArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, nil, time.Unix(0, 0)))
	require.Contains(t, buf.String(), `"entries": []`)
}

func TestToJSONBadPath(t *testing.T) {
	require.Error(t, ToJSON(nil, nil, "/nonexistent/dir/file.json"))
}

func TestTaskNames(t *testing.T) {
	names := TaskNames([]store.Task{{ID: "a", Description: "alpha"}, {ID: "b", Description: "beta"}})
	require.Equal(t, map[string]string{"a": "alpha", "b": "beta"}, names)
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:    "00:00:00",
		59:   "00:00:59",
		3600: "01:00:00",
		3725: "01:02:05",
	}
	for in, want := range cases {
		require.Equal(t, want, formatDuration(in))
	}
}
