package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shrink/internal/processor"
)

type Model struct {
	updates   <-chan processor.ProgressUpdate
	started   time.Time
	bar       progress.Model
	total     int
	processed int
	skipped   int
	quitting  bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	bar := progress.New(
		progress.WithGradient(string(ColorAccentAlt), string(ColorAccent)),
		progress.WithoutPercentage(),
	)
	bar.Width = 40
	return Model{updates: updates, started: time.Now(), bar: bar}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.skipped += msg.SkippedDelta
		next := listenForUpdates(m.updates)
		if msg.Line == "" {
			return m, next
		}
		// print before listening again so lines keep file order
		return m, tea.Sequence(tea.Println(styleLine(processor.ProgressUpdate(msg))), next)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = barWidth(msg.Width)
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	lines := []string{
		titleStyle.Render("shrink"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed+m.skipped, m.total)) +
			dimStyle.Render(fmt.Sprintf("  processed:%d  skipped:%d", m.processed, m.skipped)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		m.bar.ViewAs(m.ratio()),
	}

	return strings.Join(lines, "\n")
}

func (m Model) ratio() float64 {
	if m.total == 0 {
		return 0
	}
	ratio := float64(m.processed+m.skipped) / float64(m.total)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func barWidth(termWidth int) int {
	width := termWidth - 10
	if width > 60 {
		width = 60
	}
	if width < 20 {
		width = 20
	}
	return width
}

func styleLine(u processor.ProgressUpdate) string {
	if u.SkippedDelta > 0 {
		return warnStyle.Render(u.Line)
	}
	return okStyle.Render(u.Line)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
