package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/charmbracelet/lipgloss"
)

// Summary is everything printed at the end of a run
type Summary struct {
	Snapshot    *entity.Snapshot
	Input       string
	Output      string
	Invalid     int
	Irregular   int
	Duplicates  int
	Interrupted bool
}

// RenderSummary renders final statistics using lipgloss
func RenderSummary(s Summary) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Padding(1, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")).
		Bold(true)

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("─", 70))

	snap := s.Snapshot
	title := titleStyle.Render("✨ Funnel Complete")
	if s.Interrupted {
		title = titleStyle.Render("⚠ Funnel Interrupted")
	}

	var b strings.Builder
	b.WriteString(divider + "\n📊 Statistics:\n")
	row := func(key, value string) {
		fmt.Fprintf(&b, "  %s %-22s %s\n", keyStyle.Render("✓"), key, valueStyle.Render(value))
	}
	row("Domains Processed", fmt.Sprintf("%d / %d", snap.Processed, snap.Total))
	row("Elapsed", snap.Elapsed.Round(1e6).String())
	if snap.Faulted > 0 {
		row("Faulted", fmt.Sprintf("%d", snap.Faulted))
	}
	if s.Invalid > 0 {
		row("Invalid Rows Skipped", fmt.Sprintf("%d", s.Invalid))
	}
	if s.Irregular > 0 {
		row("Irregular Names", fmt.Sprintf("%d", s.Irregular))
	}
	if s.Duplicates > 0 {
		row("Duplicate Domains", fmt.Sprintf("%d", s.Duplicates))
	}

	b.WriteString("\n🔻 Funnel:\n")
	for _, st := range snap.Stages {
		row(strings.ToUpper(st.Name)+" ok", fmt.Sprintf("%d (%s of processed, %.2f/s)",
			st.Succeeded, percent(st.Succeeded, snap.Processed), st.Rate))
	}

	b.WriteString("\n📁 Files:\n")
	row("Input", s.Input)
	row("Output", s.Output)
	b.WriteString(divider)

	done := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true).
		Render("✅ Funnel finished successfully!")
	if s.Interrupted {
		done = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render("Partial results written.")
	}

	return "\n" + title + "\n" + b.String() + "\n" + done + "\n"
}

// PrintSummary writes the rendered summary to w
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprint(w, RenderSummary(s))
}

func percent(part, whole int64) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
