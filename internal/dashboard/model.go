// Package dashboard is a terminal view of a running mock ingestion server:
// backlog size, arrival rate and health, refreshed on an interval.
package dashboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const historySize = 40

type tickMsg time.Time

type snapshotMsg struct {
	snapshot Snapshot
	err      error
}

// Model implements tea.Model.
type Model struct {
	fetcher  Fetcher
	interval time.Duration
	title    string

	snapshot  Snapshot
	lastErr   error
	polls     int
	history   []float64 // requests per second between polls
	startTime time.Time
	width     int
	quitting  bool
}

func NewModel(fetcher Fetcher, title string, interval time.Duration) *Model {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Model{
		fetcher:   fetcher,
		interval:  interval,
		title:     title,
		history:   make([]float64, 0, historySize),
		startTime: time.Now(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickEvery(m.interval), fetch(m.fetcher, m.interval))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetch(m.fetcher, m.interval)
		}

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(tickEvery(m.interval), fetch(m.fetcher, m.interval))

	case snapshotMsg:
		m.apply(msg)
		return m, nil
	}

	return m, nil
}

func (m *Model) apply(msg snapshotMsg) {
	m.polls++
	if msg.err != nil {
		m.lastErr = msg.err
		return
	}
	m.lastErr = nil

	prev := m.snapshot
	m.snapshot = msg.snapshot
	if prev.FetchedAt.IsZero() {
		return
	}

	// A shrinking backlog means a harness drained it; count only growth.
	delta := msg.snapshot.Pending - prev.Pending
	if delta < 0 {
		delta = 0
	}
	elapsed := msg.snapshot.FetchedAt.Sub(prev.FetchedAt).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(delta) / elapsed
	}

	m.history = append(m.history, rate)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *Model) View() string {
	if m.quitting {
		return "Shutting down dashboard...\n"
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	panelWidth := width - 4
	if panelWidth > 76 {
		panelWidth = 76
	}

	header := headerStyle.Render("mockingress  " + infoStyle.Render(m.title))

	rows := []string{
		titleStyle.Render("Backlog"),
		row("Pending requests", humanize.Comma(int64(m.snapshot.Pending))),
		row("Arrival rate", fmt.Sprintf("%.1f req/s", m.currentRate())),
		row("History", sparkline(m.history, 30)),
		"",
		titleStyle.Render("Health"),
		row("Status", statusBadge(m.snapshot.Health)),
	}
	for _, name := range sortedKeys(m.snapshot.Checks) {
		rows = append(rows, row("  "+name, statusBadge(m.snapshot.Checks[name])))
	}
	rows = append(rows, row("Server uptime", orDash(m.snapshot.Uptime)))

	footer := mutedStyle.Render(fmt.Sprintf("polls %d · watching since %s · q quit · r refresh",
		m.polls, humanize.Time(m.startTime)))
	if m.lastErr != nil {
		footer = downStyle.Render("poll failed: "+m.lastErr.Error()) + "\n" + footer
	}

	panel := panelStyle.Width(panelWidth).Render(strings.Join(rows, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, panel, footer) + "\n"
}

func (m *Model) currentRate() float64 {
	if len(m.history) == 0 {
		return 0
	}
	return m.history[len(m.history)-1]
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sparkline scales data to eight block heights over width cells.
func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return strings.Repeat("▁", width)
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		return strings.Repeat("▄", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := i * len(data) / width
		normalized := (data[idx] - minVal) / (maxVal - minVal)
		b.WriteRune(chars[min(int(normalized*7), 7)])
	}
	return b.String()
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetch(f Fetcher, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snapshot, err := f.Fetch(ctx)
		return snapshotMsg{snapshot: snapshot, err: err}
	}
}

// Run shows the dashboard until the user quits or ctx is canceled.
func Run(ctx context.Context, fetcher Fetcher, title string, interval time.Duration) error {
	p := tea.NewProgram(NewModel(fetcher, title, interval), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
