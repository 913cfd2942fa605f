package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"clangfmt/internal/driver"
)

const (
	statusWidth = 11
	minRows     = 3
	chromeRows  = 7 // header, blank lines, footer and bar
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = map[string]lipgloss.Style{
		"done":       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"ignored":    mutedStyle,
		"reading":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"formatting": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"writing":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	bar        progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	width      int
	height     int
	done       bool
}

type fileItem struct {
	path     string
	status   string
	stage    driver.Stage
	finished bool
	elapsed  time.Duration
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that shows per-file progress
// of a formatting run. It consumes events until the channel is closed.
// Files missing from files are added when their first event arrives.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		index:   make(map[string]int, len(files)),
		width:   80,
		height:  24,
	}
	for _, file := range files {
		m.add(file)
	}
	return m
}

func (m *progressModel) add(file string) int {
	m.index[file] = len(m.items)
	m.items = append(m.items, fileItem{path: file, status: "queued"})
	return len(m.items) - 1
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	header := m.title
	if m.stageLabel != "" {
		header += " (" + m.stageLabel + ")"
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	if len(m.items) == 0 {
		return b.String()
	}

	nameWidth := max(m.width-statusWidth-14, 20)
	rows, hidden := m.visibleRows()
	for _, item := range rows {
		style, ok := statusStyle[item.status]
		if !ok {
			style = lipgloss.NewStyle()
		}
		fmt.Fprintf(&b, "  %s %s", style.Render(fmt.Sprintf("%*s", statusWidth, item.status)), truncate(item.path, nameWidth))
		if item.finished && item.elapsed > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s", item.elapsed.Round(time.Millisecond))))
		}
		b.WriteByte('\n')
	}
	if hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more", hidden)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.footer())
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// visibleRows fits the file list to the terminal height. Files still in
// flight are shown before finished ones.
func (m *progressModel) visibleRows() (rows []fileItem, hidden int) {
	limit := max(m.height-chromeRows, minRows)
	if len(m.items) <= limit {
		return m.items, 0
	}
	rows = make([]fileItem, 0, limit)
	for _, pass := range []bool{false, true} {
		for _, item := range m.items {
			if item.finished == pass && len(rows) < limit {
				rows = append(rows, item)
			}
		}
	}
	return rows, len(m.items) - len(rows)
}

func (m *progressModel) footer() string {
	var finished, ignored, failed int
	for _, item := range m.items {
		if !item.finished {
			continue
		}
		finished++
		switch item.status {
		case "ignored":
			ignored++
		case "error":
			failed++
		}
	}
	return mutedStyle.Render(fmt.Sprintf("%d/%d files, %d ignored, %d failed", finished, len(m.items), ignored, failed))
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Progress)
	if ev.File == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		idx = m.add(ev.File)
	}
	item := &m.items[idx]
	if label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	switch ev.Progress {
	case driver.ProgressDone, driver.ProgressSkipped, driver.ProgressError:
		item.finished = true
		item.elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.percent())
}

// percent weighs unfinished files by how far along the pipeline they are.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var total float64
	for _, item := range m.items {
		switch {
		case item.finished:
			total++
		case item.stage == driver.StageRead:
			total += 0.1
		case item.stage == driver.StageFormat:
			total += 0.5
		case item.stage == driver.StageWrite:
			total += 0.9
		}
	}
	return total / float64(len(m.items))
}

func statusLabel(stage driver.Stage, p driver.Progress) string {
	switch p {
	case driver.ProgressQueued:
		return "queued"
	case driver.ProgressSkipped:
		return "ignored"
	case driver.ProgressError:
		return "error"
	case driver.ProgressDone:
		if stage == driver.StageCollect {
			return ""
		}
		return "done"
	case driver.ProgressWorking:
		switch stage {
		case driver.StageCollect:
			return "collecting"
		case driver.StageRead:
			return "reading"
		case driver.StageFormat:
			return "formatting"
		case driver.StageWrite:
			return "writing"
		}
	}
	return ""
}

// truncate shortens value to width cells by dropping its start, so the
// file name stays visible.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	prefix := "..."
	if width <= len(prefix) {
		prefix = ""
	}
	budget := width - len(prefix)
	runes := []rune(value)
	start := len(runes)
	for used := 0; start > 0; start-- {
		w := runewidth.RuneWidth(runes[start-1])
		if used+w > budget {
			break
		}
		used += w
	}
	return prefix + string(runes[start:])
}
