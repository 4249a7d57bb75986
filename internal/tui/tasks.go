package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/store"
)

type taskFormType int

const (
	formNewTask taskFormType = iota
	formEditTask
	formClearTasks
)

type tasksModel struct {
	store  *store.Store
	log    zerolog.Logger
	width  int
	height int

	tasks    []store.Task
	cursor   int
	activeID string

	formActive bool
	form       *huh.Form
	formType   taskFormType

	// Form field pointers (survive value copies)
	formDesc     *string
	formExpected *string
	formConfirm  *bool

	editing store.Task
}

func newTasksModel(s *store.Store, opts Options) tasksModel {
	desc, expected, confirm := "", "", false
	return tasksModel{
		store:        s,
		log:          opts.Logger,
		formDesc:     &desc,
		formExpected: &expected,
		formConfirm:  &confirm,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	tasks  []store.Task
	err    error
	status string
}

func (m tasksModel) refresh() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		tasks, err := s.ListTasks(ctx)
		return tasksDataMsg{tasks: tasks, err: err}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Load tasks: %v", msg.err), true)
		}
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		if msg.status != "" {
			return m, statusCmd(msg.status, false)
		}
		return m, nil

	case sessionLoggedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.tasks) > 0 {
			t := m.tasks[m.cursor]
			m.activeID = t.ID
			return m, func() tea.Msg { return taskSelectedMsg{task: t} }
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm(formNewTask, store.Task{})
	case key.Matches(msg, keys.Edit):
		if len(m.tasks) > 0 {
			return m.showTaskForm(formEditTask, m.tasks[m.cursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(m.tasks) > 0 {
			return m, m.deleteTask(m.tasks[m.cursor].ID)
		}
	case key.Matches(msg, keys.Clear):
		if len(m.tasks) > 0 {
			return m.showClearForm()
		}
	}
	return m, nil
}

func (m tasksModel) showTaskForm(ft taskFormType, t store.Task) (tasksModel, tea.Cmd) {
	*m.formDesc = t.Description
	*m.formExpected = ""
	if t.ExpectedTime > 0 {
		*m.formExpected = strconv.FormatUint(uint64(t.ExpectedTime), 10)
	}
	m.formType = ft
	m.editing = t

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(m.formDesc).Validate(validateDescription),
			huh.NewInput().Title("Expected time (min)").Value(m.formExpected).Validate(validateMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showClearForm() (tasksModel, tea.Cmd) {
	*m.formConfirm = false
	m.formType = formClearTasks

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete all %d tasks and their history?", len(m.tasks))).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.formConfirm),
		),
	).WithShowHelp(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case formClearTasks:
			if *m.formConfirm {
				return m, m.clearTasks()
			}
			return m, nil
		default:
			return m, m.saveTask()
		}
	}

	return m, cmd
}

// saveTask creates a task from the form fields, or edits the description
// and expected time of the one being edited.
func (m tasksModel) saveTask() tea.Cmd {
	desc := strings.TrimSpace(*m.formDesc)
	var expected uint32
	if n, err := strconv.ParseUint(strings.TrimSpace(*m.formExpected), 10, 32); err == nil {
		expected = uint32(n)
	}
	if desc == "" {
		return nil
	}

	if m.formType == formEditTask {
		id := m.editing.ID
		return m.mutate("edit task", "Saved "+desc, func(ctx context.Context, s *store.Store) error {
			_, err := s.EditTask(ctx, id, desc, expected)
			return err
		})
	}

	t := store.Task{ID: uuid.NewString(), Description: desc, ExpectedTime: expected}
	return m.mutate("save task", "Saved "+desc, func(ctx context.Context, s *store.Store) error {
		return s.UpsertTask(ctx, t)
	})
}

func (m tasksModel) deleteTask(id string) tea.Cmd {
	return m.mutate("delete task", "Task deleted", func(ctx context.Context, s *store.Store) error {
		return s.DeleteTask(ctx, id)
	})
}

func (m tasksModel) clearTasks() tea.Cmd {
	return m.mutate("clear tasks", "All tasks cleared", func(ctx context.Context, s *store.Store) error {
		return s.ClearTasks(ctx)
	})
}

// mutate runs fn and then reloads the list.
func (m tasksModel) mutate(op, done string, fn func(context.Context, *store.Store) error) tea.Cmd {
	s, log := m.store, m.log
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		if err := fn(ctx, s); err != nil {
			log.Error().Err(err).Msg(op)
			return statusMsg{text: fmt.Sprintf("%s: %v", op, err), isError: true}
		}
		tasks, err := s.ListTasks(ctx)
		return tasksDataMsg{tasks: tasks, err: err, status: done}
	}
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("task description is required")
	}
	return nil
}

func validateMinutes(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseUint(s, 10, 32); err != nil {
		return errors.New("enter whole minutes")
	}
	return nil
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		switch m.formType {
		case formEditTask:
			title = titleStyle.Render("Edit Task")
		case formClearTasks:
			title = titleStyle.Render("Clear Tasks")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Tasks")

	if len(m.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("    %-36s %10s %10s", "Task", "Worked", "Expected"))
	rows = append(rows, header)

	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if t.ID == m.activeID {
			marker = "●"
		}
		row := style.Render(fmt.Sprintf("%s%s %-36s %10s %9dm", cursor, marker, truncate(t.Description, 36), t.WorkedTime, t.ExpectedTime))
		if t.ExpectedTime > 0 && t.WorkedTime.TotalSeconds() >= int64(t.ExpectedTime)*60 {
			row += successStyle.Render(" ✓")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: work on  n: new  r: edit  d: delete  C: clear all"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
