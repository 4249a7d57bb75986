package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/store"
)

const reportDays = 7

type reportsModel struct {
	store  *store.Store
	log    zerolog.Logger
	now    func() time.Time
	width  int
	height int

	days   []store.DailyTotal
	tasks  []store.TaskTotal
	offset int // 7-day blocks back from today (0 = the last seven days)

	chart barchart.Model
}

func newReportsModel(s *store.Store, opts Options) reportsModel {
	return reportsModel{
		store: s,
		log:   opts.Logger,
		now:   opts.Now,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days  []store.DailyTotal
	tasks []store.TaskTotal
	err   error
}

func (r reportsModel) refresh() tea.Cmd {
	s := r.store
	from, to := r.dateRange()
	since, until := from.Unix(), to.Unix()-1
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		days, err := s.DailyTotals(ctx, since, until)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		tasks, err := s.TaskTotals(ctx, since, until)
		return reportsDataMsg{days: days, tasks: tasks, err: err}
	}
}

// dateRange returns the UTC window [from, to) shown by the report.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-reportDays*r.offset)
	return end.AddDate(0, 0, -reportDays), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			r.log.Error().Err(msg.err).Msg("load report")
			return r, statusCmd(fmt.Sprintf("Load report: %v", msg.err), true)
		}
		r.days = msg.days
		r.tasks = msg.tasks
		r.buildChart()
		return r, nil

	case sessionLoggedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]int64, len(r.days))
	for _, d := range r.days {
		byDate[d.Date] = d.Seconds
	}

	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	emptyStyle := lipgloss.NewStyle().Foreground(colorSubtle)

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		secs := byDate[d.Format(time.DateOnly)]
		style := barStyle
		if secs == 0 {
			style = emptyStyle
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "minutes",
				Value: float64(secs) / 60,
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) totalSeconds() int64 {
	var total int64
	for _, d := range r.days {
		total += d.Seconds
	}
	return total
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel,
		"  ", highlightStyle.Render(formatHours(r.totalSeconds())),
	)

	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTaskTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTaskTable(w int) string {
	if len(r.tasks) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-32s %10s %9s", "Task", "Worked", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 53))))

	for _, t := range r.tasks {
		rows = append(rows, fmt.Sprintf("  %-32s %10s %9d",
			truncate(t.Description, 32), formatSeconds(t.Seconds), t.Sessions,
		))
	}

	return strings.Join(rows, "\n")
}
