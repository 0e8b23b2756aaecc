package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/timerpie/internal/store"
	"github.com/sadopc/timerpie/internal/timer"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

// recentLimit is how many runs the list below the chart shows.
const recentLimit = 8

type historyModel struct {
	store  *store.Store
	clock  timer.Clock
	width  int
	height int

	mode   historyMode
	totals []store.DailyTotal
	recent []store.Run
	offset int // weeks or 7-day blocks back from today
	err    error

	chart barchart.Model
}

func newHistoryModel(s *store.Store, clock timer.Clock) historyModel {
	return historyModel{
		store: s,
		clock: clock,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	totals []store.DailyTotal
	recent []store.Run
	err    error
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := h.dateRange()
		totals, err := h.store.GetDailyTotals(from, to)
		if err != nil {
			return historyDataMsg{err: err}
		}
		recent, err := h.store.ListRuns(store.RunFilter{Limit: recentLimit})
		return historyDataMsg{totals: totals, recent: recent, err: err}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch h.mode {
	case historyWeekly:
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*h.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*h.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.err = msg.err
		h.totals = msg.totals
		h.recent = msg.recent
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Mode):
			if h.mode == historyDaily {
				h.mode = historyWeekly
			} else {
				h.mode = historyDaily
			}
			h.offset = 0
			return h, h.refresh()
		}
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := max(h.width-8, 20)
	chartHeight := 10
	if h.height > 34 {
		chartHeight = 14
	}
	h.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]store.DailyTotal, len(h.totals))
	for _, t := range h.totals {
		byDate[t.Date] = t
	}

	from, to := h.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		t := byDate[d.Format("2006-01-02")]
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if t.Minutes == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "minutes",
				Value: t.Minutes,
				Style: style,
			}},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if h.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel,
	)

	if h.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", errorStyle.Render("  "+h.err.Error()),
		))
	}

	nav := mutedStyle.Render("  ←/→: navigate  m: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", h.renderSummary(), "", h.renderRecent(w), "", nav,
		),
	)
}

func (h historyModel) renderSummary() string {
	var minutes float64
	var completed, cancelled int
	for _, t := range h.totals {
		minutes += t.Minutes
		completed += t.Completed
		cancelled += t.Cancelled
	}
	if completed+cancelled == 0 {
		return mutedStyle.Render("  No runs in this period")
	}
	return fmt.Sprintf("  %s timed  %s  %s",
		highlightStyle.Render(formatMinutes(minutes)),
		timerRunningStyle.Render(fmt.Sprintf("%d completed", completed)),
		mutedStyle.Render(fmt.Sprintf("%d cancelled", cancelled)),
	)
}

func (h historyModel) renderRecent(w int) string {
	if len(h.recent) == 0 {
		return mutedStyle.Render("  No runs yet")
	}

	now := h.clock.Now()
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-16s %-5s %-8s %9s %10s", "Started", "Mode", "Input", "Ran", "Status")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
	}
	for _, r := range h.recent {
		rows = append(rows, fmt.Sprintf("  %-16s %-5s %-8s %9s %s",
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Mode, r.Input, formatDuration(r.Elapsed()), statusBadge(r),
		))
	}
	return strings.Join(rows, "\n")
}

func statusBadge(r store.Run) string {
	label := fmt.Sprintf("%10s", string(r.Status))
	switch r.Status {
	case store.RunCompleted:
		return timerRunningStyle.Render(label)
	case store.RunRunning:
		return timerPausedStyle.Render(label)
	}
	return mutedStyle.Render(label)
}
