package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WatchStatus is one update from a watch loop.
type WatchStatus struct {
	Program string
	Files   int
	Reloads int
	Failed  int
	// Changed is set when this update comes from a reload attempt.
	Changed bool
	Err     error
	At      time.Time
}

type watchMsg WatchStatus

type watchRow struct {
	status WatchStatus
	lastOK time.Time
}

type watchModel struct {
	title   string
	updates <-chan WatchStatus
	spinner spinner.Model
	rows    []watchRow
	index   map[string]int
	width   int
	done    bool
}

// NewWatchModel returns a Bubble Tea model showing one line per watched
// program. It quits when updates is closed or on q / ctrl+c.
func NewWatchModel(title string, programs []string, updates <-chan WatchStatus) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	rows := make([]watchRow, len(programs))
	index := make(map[string]int, len(programs))
	for i, name := range programs {
		rows[i].status.Program = name
		index[name] = i
	}
	return &watchModel{title: title, updates: updates, spinner: sp, rows: rows, index: index, width: 80}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *watchModel) listen() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-m.updates
		if !ok {
			return doneMsg{}
		}
		return watchMsg(st)
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchMsg:
		m.apply(WatchStatus(msg))
		return m, m.listen()
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
	}
	return m, nil
}

func (m *watchModel) apply(st WatchStatus) {
	idx, ok := m.index[st.Program]
	if !ok {
		idx = len(m.rows)
		m.rows = append(m.rows, watchRow{})
		m.index[st.Program] = idx
	}
	row := &m.rows[idx]
	row.status = st
	if st.Changed && st.Err == nil {
		row.lastOK = st.At
	}
}

func (m *watchModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	header := m.title
	if !m.done {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		st := row.status
		state := "watching"
		if st.Err != nil {
			state = "error"
		}
		line := fmt.Sprintf("  %s %s  %s",
			styleWatchState(state).Render(fmt.Sprintf("%9s", state)),
			truncate(st.Program, 24),
			dim.Render(fmt.Sprintf("%d files, %d reloads, %d failed", st.Files, st.Reloads, st.Failed)))
		if !row.lastOK.IsZero() {
			line += dim.Render(" (last " + row.lastOK.Format("15:04:05") + ")")
		}
		b.WriteString(line)
		b.WriteString("\n")
		if st.Err != nil {
			msg := strings.SplitN(st.Err.Error(), "\n", 2)[0]
			b.WriteString("            ")
			b.WriteString(styleWatchState("error").Render(truncate(msg, m.width-14)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func styleWatchState(state string) lipgloss.Style {
	if state == "error" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
}
