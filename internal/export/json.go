package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

type jsonExport struct {
	ExportedAt   string      `json:"exported_at"`
	Count        int         `json:"count"`
	TotalSeconds int64       `json:"total_seconds"`
	Entries      []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID         int64  `json:"id"`
	TaskID     string `json:"task_id"`
	Task       string `json:"task"`
	Timestamp  string `json:"timestamp"`
	WorkedSec  int64  `json:"worked_seconds"`
	WorkedTime string `json:"worked"`
}

// ToJSON writes the audit entries as an indented JSON document to path.
func ToJSON(entries []store.AuditEntry, tasks map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, entries, tasks, time.Now()); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, entries []store.AuditEntry, tasks map[string]string, exportedAt time.Time) error {
	doc := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    make([]jsonEntry, 0, len(entries)),
	}

	for _, e := range entries {
		secs := e.WorkedTime.TotalSeconds()
		doc.TotalSeconds += secs
		doc.Entries = append(doc.Entries, jsonEntry{
			ID:         e.ID,
			TaskID:     e.TaskID,
			Task:       taskName(tasks, e.TaskID),
			Timestamp:  formatTimestamp(e.Timestamp),
			WorkedSec:  secs,
			WorkedTime: formatDuration(secs),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

// TaskNames indexes task descriptions by id for the exporters.
func TaskNames(tasks []store.Task) map[string]string {
	names := make(map[string]string, len(tasks))
	for _, t := range tasks {
		names[t.ID] = t.Description
	}
	return names
}
