package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/reprox/batch"
	"github.com/justapithecus/reprox/lode"
)

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// SummaryModel is a Bubble Tea model showing one batch result.
// Bucket paths scroll in a viewport.
type SummaryModel struct {
	viewType string
	data     any
	viewport viewport.Model
	ready    bool
	quitting bool
}

// NewSummaryModel creates a new summary model.
func NewSummaryModel(viewType string, data any) SummaryModel {
	return SummaryModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m SummaryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Two lines for help.
		height := max(msg.Height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m SummaryModel) View() string {
	if m.quitting {
		return ""
	}
	help := HelpStyle.Render("↑/↓ scroll • q quit")
	if !m.ready {
		return m.content() + "\n" + help
	}
	return m.viewport.View() + "\n" + help
}

func (m SummaryModel) content() string {
	switch m.viewType {
	case ViewBatchReport:
		report, ok := m.data.(*batch.Report)
		if !ok {
			return fmt.Sprintf("Invalid data type for %s", m.viewType)
		}
		return renderReport(report)
	case ViewLedgerSummary:
		summary, ok := m.data.(*lode.SummaryRecord)
		if !ok {
			return fmt.Sprintf("Invalid data type for %s", m.viewType)
		}
		return renderLedgerSummary(summary)
	default:
		return fmt.Sprintf("Unknown view type: %s", m.viewType)
	}
}

func renderReport(r *batch.Report) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Batch " + r.BatchID))
	b.WriteString("\n")
	writeField(&b, "Source root", r.SourceRoot)
	writeField(&b, "Destination root", r.DestinationRoot)
	writeField(&b, "Depth", r.Depth)
	writeField(&b, "Duration", (time.Duration(r.DurationMs) * time.Millisecond).String())
	if r.Canceled {
		b.WriteString(ErrorStyle.Render("Canceled before all directories were processed"))
		b.WriteString("\n")
	}
	if r.LedgerError != "" {
		b.WriteString(ErrorStyle.Render("Ledger: " + r.LedgerError))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statBoxes(r.Total, r.Promoted, r.Failed))
	b.WriteString("\n")

	for _, bucket := range r.Buckets {
		b.WriteString("\n")
		b.WriteString(BucketStyle.Render(fmt.Sprintf("%s (%d)", bucket.Label, bucket.Count)))
		for _, p := range bucket.Paths {
			b.WriteString("\n")
			b.WriteString(PathStyle.Render(p))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderLedgerSummary(s *lode.SummaryRecord) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Batch " + s.BatchID))
	b.WriteString("\n")
	writeField(&b, "Source root", s.SourceRoot)
	writeField(&b, "Destination root", s.DestinationRoot)
	writeField(&b, "Depth", s.Depth)
	writeField(&b, "Completed", s.CompletedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")
	b.WriteString(statBoxes(int(s.Total), int(s.Promoted), int(s.Failed)))
	b.WriteString("\n")

	labels := make([]string, 0, len(s.Buckets))
	for label := range s.Buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		b.WriteString("\n")
		b.WriteString(BucketStyle.Render(fmt.Sprintf("%s (%d)", label, s.Buckets[label])))
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s %s\n", LabelStyle.Render(label+":"), ValueStyle.Render(value))
}

func statBoxes(total, promoted, failed int) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Total", total, highlightColor),
		statBox("Promoted", promoted, successColor),
		statBox("Failed", failed, errorColor),
	)
}

func statBox(label string, value int, color lipgloss.Color) string {
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	return StatBoxStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}

// RunSummaryTUI runs the summary TUI.
func RunSummaryTUI(viewType string, data any) error {
	model := NewSummaryModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderSummaryStatic renders the summary without a terminal program.
func RenderSummaryStatic(viewType string, data any) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(NewSummaryModel(viewType, data).content())
}
