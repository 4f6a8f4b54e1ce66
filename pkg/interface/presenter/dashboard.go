package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// recentLimit is the number of committed domains kept for display
const recentLimit = 50

type recentRecord struct {
	domain  string
	stage   entity.Stage
	faulted bool
}

// Dashboard is a TUI dashboard for funnel progress
type Dashboard struct {
	snapshot  *entity.Snapshot
	recent    []recentRecord
	total     int64
	committed int64
	bar       progress.Model
	width     int
	height    int
	startTime time.Time
	mu        sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard for total domains
func NewDashboard(total int) *Dashboard {
	return &Dashboard{
		snapshot:  &entity.Snapshot{Total: int64(total)},
		total:     int64(total),
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.mu.Lock()
		d.width = msg.Width
		d.height = msg.Height
		d.bar.Width = max(msg.Width/2-10, 10)
		d.mu.Unlock()
		return d, nil

	case tickMsg:
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.width == 0 {
		return "Initializing..."
	}

	header := d.renderHeader()
	footer := d.renderFooter()

	availableHeight := d.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if availableHeight < 0 {
		availableHeight = 0
	}
	halfHeight := availableHeight / 2
	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	// Row 1: overall progress | host
	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderGeneralStats(leftWidth, halfHeight),
		d.renderHostStats(rightWidth, halfHeight),
	)

	// Row 2: per-stage funnel | recent commits
	remainingHeight := availableHeight - halfHeight
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderStageStats(leftWidth, remainingHeight),
		d.renderRecent(rightWidth, remainingHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, row1, row2, footer)
}

// OnMetricsUpdate implements application.MetricsObserver
func (d *Dashboard) OnMetricsUpdate(snap *entity.Snapshot) {
	copied := *snap
	copied.Stages = append([]entity.StageSnapshot(nil), snap.Stages...)

	d.mu.Lock()
	d.snapshot = &copied
	d.mu.Unlock()
}

// OnRecord implements application.RecordObserver
func (d *Dashboard) OnRecord(rec *entity.DomainRecord, faulted bool) {
	d.mu.Lock()
	d.committed++
	d.recent = append(d.recent, recentRecord{domain: rec.Domain, stage: rec.Stage, faulted: faulted})
	if len(d.recent) > recentLimit {
		d.recent = d.recent[len(d.recent)-recentLimit:]
	}
	d.mu.Unlock()
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	elapsed := time.Since(d.startTime).Round(time.Second)
	now := time.Now().Format("15:04:05")

	title := titleStyle.Render("🔻 Domain Funnel")
	timeInfo := timeStyle.Render(fmt.Sprintf(" Running: %s | Time: %s", elapsed, now))

	return title + timeInfo
}

func boxStyle(color string, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(1, 2).
		Width(max(width-2, 0)).
		Height(max(height-2, 0))
}

func (d *Dashboard) renderGeneralStats(width, height int) string {
	var ratio float64
	if d.total > 0 {
		ratio = float64(d.committed) / float64(d.total)
	}

	stats := []string{
		"📊 Progress",
		"",
		fmt.Sprintf("Committed:         %d / %d", d.committed, d.total),
		fmt.Sprintf("Faulted:           %d", d.snapshot.Faulted),
		"",
		d.bar.ViewAs(ratio),
	}

	elapsed := time.Since(d.startTime).Seconds()
	if elapsed > 0 {
		stats = append(stats,
			"",
			fmt.Sprintf("Domain Rate:       %.1f domains/s", float64(d.committed)/elapsed),
		)
	}

	return boxStyle("#874BFD", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderHostStats(width, height int) string {
	host := d.snapshot.Host
	stats := []string{
		"🖥  Host (last checkpoint)",
		"",
		fmt.Sprintf("Resident Memory:   %d MiB", host.ResidentBytes>>20),
		fmt.Sprintf("Heap:              %d MiB", host.HeapBytes>>20),
		fmt.Sprintf("Load (1m):         %.2f", host.Load1),
		fmt.Sprintf("Open Files:        %d", host.OpenFiles),
		fmt.Sprintf("Goroutines:        %d", host.Goroutines),
	}
	return boxStyle("#FF6B6B", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderStageStats(width, height int) string {
	lines := []string{
		"🔍 Funnel Stages (last checkpoint)",
		"",
		fmt.Sprintf("%-6s %8s %8s %10s", "stage", "ok", "fail", "ok/s"),
	}
	for _, st := range d.snapshot.Stages {
		lines = append(lines, fmt.Sprintf("%-6s %8d %8d %10.1f", st.Name, st.Succeeded, st.Failed, st.Rate))
	}
	return boxStyle("#4ECDC4", width, height).Render(strings.Join(lines, "\n"))
}

var stageColors = map[entity.Stage]lipgloss.Color{
	entity.StageText: lipgloss.Color("10"),
	entity.StageHTTP: lipgloss.Color("11"),
	entity.StageDNS:  lipgloss.Color("208"),
	entity.StageFail: lipgloss.Color("9"),
}

func (d *Dashboard) renderRecent(width, height int) string {
	lines := []string{
		fmt.Sprintf("🧾 Recent Domains (Total: %d)", d.committed),
		"",
	}

	if len(d.recent) == 0 {
		lines = append(lines, "No domains committed yet...")
	} else {
		// border, padding and title take six lines
		maxShow := max(height-6, 0)
		start := max(len(d.recent)-maxShow, 0)
		for _, r := range d.recent[start:] {
			label := string(r.stage)
			if r.faulted {
				label += "!"
			}
			tag := lipgloss.NewStyle().Foreground(stageColors[r.stage]).Render(fmt.Sprintf("%-5s", label))
			lines = append(lines, fmt.Sprintf("  %s %s", tag, r.domain))
		}
	}

	return boxStyle("#04B575", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to stop")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
