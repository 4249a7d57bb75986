package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tomato/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewPomodoro viewState = iota
	viewTasks
	viewReports
	viewSettings
)

var viewNames = []string{"Pomodoro", "Tasks", "Reports", "Settings"}

// storeTimeout bounds a single store call made from the UI.
const storeTimeout = 5 * time.Second

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type taskSelectedMsg struct {
	task store.Task
}

type sessionLoggedMsg struct {
	task  store.Task
	delta store.TimerDuration
}

type settingsSavedMsg struct {
	settings store.TimerSettings
}

// --- Helpers ---

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

func toDuration(d store.TimerDuration) time.Duration {
	return time.Duration(d.TotalSeconds()) * time.Second
}

func fromDuration(d time.Duration) store.TimerDuration {
	return store.DurationFromSeconds(int64(d.Round(time.Second) / time.Second))
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}
