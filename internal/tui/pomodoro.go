package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/store"
)

type pomodoroMode int

const (
	modePomodoro pomodoroMode = iota
	modeShortBreak
	modeLongBreak
)

var modeNames = map[pomodoroMode]string{
	modePomodoro:   "POMODORO",
	modeShortBreak: "SHORT BREAK",
	modeLongBreak:  "LONG BREAK",
}

type pomodoroModel struct {
	store  *store.Store
	log    zerolog.Logger
	now    func() time.Time
	width  int
	height int

	settings       store.TimerSettings
	mode           pomodoroMode
	timer          countdown
	completed      int // work phases finished since start
	longBreakEvery int

	task *store.Task // the task sessions are credited to
}

func newPomodoroModel(s *store.Store, opts Options) pomodoroModel {
	every := opts.LongBreakEvery
	if every < 1 {
		every = 4
	}
	p := pomodoroModel{
		store:          s,
		log:            opts.Logger,
		now:            opts.Now,
		settings:       store.DefaultSettings(),
		longBreakEvery: every,
	}
	ctx, cancel := storeContext()
	defer cancel()
	if ts, err := s.ReadSettings(ctx); err == nil {
		p.settings = ts
	} else {
		p.log.Warn().Err(err).Msg("read settings, using defaults")
	}
	return p
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// applySettings takes effect for the next phase; a running countdown keeps
// its length.
func (p *pomodoroModel) applySettings(ts store.TimerSettings) {
	p.settings = ts
}

func (p *pomodoroModel) setTask(t store.Task) {
	p.task = &t
}

// syncTask refreshes the active task from a reloaded list. It reports false
// when the task is gone, after which sessions are no longer credited.
func (p *pomodoroModel) syncTask(tasks []store.Task) bool {
	if p.task == nil {
		return true
	}
	for _, t := range tasks {
		if t.ID == p.task.ID {
			p.task = &t
			return true
		}
	}
	p.log.Info().Str("task_id", p.task.ID).Msg("active task removed")
	p.task = nil
	return false
}

func (p pomodoroModel) durationFor(m pomodoroMode) time.Duration {
	switch m {
	case modeShortBreak:
		return toDuration(p.settings.ShortBreak)
	case modeLongBreak:
		return toDuration(p.settings.LongBreak)
	default:
		return toDuration(p.settings.Pomodoro)
	}
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if p.timer.done(p.now()) {
			return p.finishPhase()
		}
		return p, nil

	case sessionLoggedMsg:
		if p.task != nil && p.task.ID == msg.task.ID {
			t := msg.task
			p.task = &t
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if !p.timer.running() {
				p.timer.start(p.durationFor(p.mode), p.now())
				if p.mode == modePomodoro && p.task == nil {
					return p, statusCmd("No task selected: this session will not be recorded", false)
				}
			}
		case key.Matches(msg, keys.Pause):
			p.timer.toggle(p.now())
		case key.Matches(msg, keys.Stop):
			p.timer.stop()
		case key.Matches(msg, keys.Skip):
			if p.timer.running() {
				return p.finishPhase()
			}
		case key.Matches(msg, keys.Left):
			if !p.timer.running() {
				p.mode = (p.mode + 2) % 3
			}
		case key.Matches(msg, keys.Right):
			if !p.timer.running() {
				p.mode = (p.mode + 1) % 3
			}
		}
	}
	return p, nil
}

// finishPhase closes the current phase. A finished work phase is credited
// to the active task and starts the matching break; a finished break goes
// back to an idle pomodoro.
func (p pomodoroModel) finishPhase() (pomodoroModel, tea.Cmd) {
	now := p.now()

	if p.mode != modePomodoro {
		p.timer.stop()
		p.mode = modePomodoro
		return p, statusCmd("Break over. Press s for the next pomodoro \a", false)
	}

	worked := fromDuration(p.timer.elapsed(now))
	p.timer.stop()
	p.completed++

	p.mode = modeShortBreak
	if p.completed%p.longBreakEvery == 0 {
		p.mode = modeLongBreak
	}
	p.timer.start(p.durationFor(p.mode), now)

	return p, tea.Batch(
		p.logSession(worked),
		statusCmd(fmt.Sprintf("Pomodoro done, %s! \a", strings.ToLower(modeNames[p.mode])), false),
	)
}

func (p pomodoroModel) logSession(delta store.TimerDuration) tea.Cmd {
	if p.task == nil || delta.TotalSeconds() == 0 {
		return nil
	}
	s, id, log := p.store, p.task.ID, p.log
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		t, err := s.CompleteSession(ctx, id, delta)
		if err != nil {
			log.Error().Err(err).Str("task_id", id).Msg("record session")
			return statusMsg{text: fmt.Sprintf("Could not record session: %v", err), isError: true}
		}
		log.Info().Str("task_id", id).Stringer("delta", delta).Msg("session recorded")
		return sessionLoggedMsg{task: t, delta: delta}
	}
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	now := p.now()

	title := titleStyle.Render("Pomodoro Timer")
	modeRow := p.renderModes()

	clock := formatPomodoroTime(p.timer.remaining(now))
	if !p.timer.running() {
		clock = formatPomodoroTime(p.durationFor(p.mode))
	}

	style := timerStyle
	switch {
	case p.timer.paused():
		style = timerPausedStyle
	case p.timer.running() && p.mode == modePomodoro:
		style = timerRunningStyle
	case p.timer.running():
		style = timerBreakStyle
	}
	timeDisplay := style.Width(max(w-6, 0)).Render(clock)

	var stateLabel string
	switch {
	case p.timer.paused():
		stateLabel = warningStyle.Render("PAUSED")
	case p.timer.running():
		stateLabel = accentStyle.Bold(true).Render(modeNames[p.mode])
	default:
		stateLabel = mutedStyle.Render("Ready")
	}

	taskLine := mutedStyle.Render("No task selected. Pick one in the Tasks view (2).")
	if p.task != nil {
		taskLine = lipgloss.JoinHorizontal(lipgloss.Bottom,
			subtitleStyle.Render("Working on "),
			highlightStyle.Render(p.task.Description),
			mutedStyle.Render(fmt.Sprintf("  %s / %dm", p.task.WorkedTime, p.task.ExpectedTime)),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		modeRow,
		"",
		timeDisplay,
		stateLabel,
		"",
		p.renderProgress(),
		"",
		taskLine,
	)

	var controls string
	switch {
	case !p.timer.running():
		controls = mutedStyle.Render("s: start  ←/→: mode")
	case p.timer.paused():
		controls = mutedStyle.Render("space: resume  f: finish  x: reset")
	default:
		controls = mutedStyle.Render("space: pause  f: finish  x: reset")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderModes() string {
	var tabs []string
	for _, m := range []pomodoroMode{modePomodoro, modeShortBreak, modeLongBreak} {
		name := modeNames[m]
		if m == p.mode {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (p pomodoroModel) renderProgress() string {
	var parts []string
	inCycle := p.completed % p.longBreakEvery
	if inCycle == 0 && p.completed > 0 && p.mode == modeLongBreak {
		inCycle = p.longBreakEvery
	}
	for i := 0; i < p.longBreakEvery; i++ {
		switch {
		case i < inCycle:
			parts = append(parts, successStyle.Render("●"))
		case i == inCycle && p.mode == modePomodoro && p.timer.running():
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d done", p.completed))
	return strings.Join(parts, " ") + counter
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
