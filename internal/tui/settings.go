package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/store"
)

// durationFields holds the form strings for one TimerDuration.
type durationFields struct {
	minutes *string
	seconds *string
}

func newDurationFields() durationFields {
	m, s := "", ""
	return durationFields{minutes: &m, seconds: &s}
}

func (f durationFields) load(d store.TimerDuration) {
	*f.minutes = strconv.FormatUint(uint64(d.Minutes), 10)
	*f.seconds = strconv.FormatUint(uint64(d.Seconds), 10)
}

func (f durationFields) value() (store.TimerDuration, error) {
	m, err := parseUint32(*f.minutes)
	if err != nil {
		return store.TimerDuration{}, err
	}
	s, err := parseUint32(*f.seconds)
	if err != nil {
		return store.TimerDuration{}, err
	}
	return store.TimerDuration{Minutes: m, Seconds: s}, nil
}

type settingsModel struct {
	store  *store.Store
	log    zerolog.Logger
	width  int
	height int

	settings   store.TimerSettings
	formActive bool
	form       *huh.Form

	pomodoro   durationFields
	shortBreak durationFields
	longBreak  durationFields
}

func newSettingsModel(s *store.Store, opts Options) settingsModel {
	return settingsModel{
		store:      s,
		log:        opts.Logger,
		settings:   store.DefaultSettings(),
		pomodoro:   newDurationFields(),
		shortBreak: newDurationFields(),
		longBreak:  newDurationFields(),
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.TimerSettings
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		ts, err := st.ReadSettings(ctx)
		return settingsDataMsg{settings: ts, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			if store.IsNotFound(msg.err) {
				s.settings = store.DefaultSettings()
				return s, nil
			}
			return s, statusCmd(fmt.Sprintf("Load settings: %v", msg.err), true)
		}
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	s.pomodoro.load(s.settings.Pomodoro)
	s.shortBreak.load(s.settings.ShortBreak)
	s.longBreak.load(s.settings.LongBreak)

	s.form = huh.NewForm(
		durationGroup("Pomodoro", s.pomodoro),
		durationGroup("Short break", s.shortBreak),
		durationGroup("Long break", s.longBreak),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func durationGroup(title string, f durationFields) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Minutes").Value(f.minutes).Validate(validateUint),
		huh.NewInput().Title("Seconds").Value(f.seconds).Validate(validateUint),
	).Title(title)
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		ts, err := s.formSettings()
		if err != nil {
			return s, statusCmd(err.Error(), true)
		}
		return s, s.saveSettings(ts)
	}

	return s, cmd
}

func (s settingsModel) formSettings() (store.TimerSettings, error) {
	var ts store.TimerSettings
	var err error
	if ts.Pomodoro, err = s.pomodoro.value(); err != nil {
		return ts, fmt.Errorf("pomodoro: %w", err)
	}
	if ts.ShortBreak, err = s.shortBreak.value(); err != nil {
		return ts, fmt.Errorf("short break: %w", err)
	}
	if ts.LongBreak, err = s.longBreak.value(); err != nil {
		return ts, fmt.Errorf("long break: %w", err)
	}
	return ts, nil
}

func (s settingsModel) saveSettings(ts store.TimerSettings) tea.Cmd {
	st, log := s.store, s.log
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		if err := st.WriteSettings(ctx, ts); err != nil {
			log.Error().Err(err).Msg("write settings")
			return statusMsg{text: fmt.Sprintf("Save settings: %v", err), isError: true}
		}
		return settingsSavedMsg{settings: ts}
	}
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.New("enter a whole number")
	}
	return uint32(n), nil
}

func validateUint(s string) error {
	_, err := parseUint32(s)
	return err
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	row := func(label string, d store.TimerDuration) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(16).Render(label), highlightStyle.Render(d.String()))
	}

	rows := []string{
		title,
		"",
		row("Pomodoro", s.settings.Pomodoro),
		row("Short break", s.settings.ShortBreak),
		row("Long break", s.settings.LongBreak),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
