package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

var csvHeader = []string{"ID", "Task ID", "Task", "Timestamp", "Worked (s)", "Worked"}

// ToCSV writes the audit entries to a new file at path. tasks maps task ids
// to descriptions; ids missing from it are rendered as "Unknown".
func ToCSV(entries []store.AuditEntry, tasks map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, entries, tasks); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, entries []store.AuditEntry, tasks map[string]string) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		secs := e.WorkedTime.TotalSeconds()
		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.TaskID,
			taskName(tasks, e.TaskID),
			formatTimestamp(e.Timestamp),
			fmt.Sprintf("%d", secs),
			formatDuration(secs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func taskName(tasks map[string]string, id string) string {
	if name, ok := tasks[id]; ok {
		return name
	}
	return "Unknown"
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
