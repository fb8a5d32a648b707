package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/extop/cli/reader"
)

// summaryLines is the height reserved above the entry table.
const summaryLines = 16

type keyMap struct {
	Quit    key.Binding
	Summary key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Summary: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "toggle entries"),
	),
}

var entryColumns = []table.Column{
	{Title: "Seq", Width: 5},
	{Title: "Change #", Width: 10},
	{Title: "Type", Width: 8},
	{Title: "Target DN", Width: 44},
	{Title: "Resume Token", Width: 24},
}

// ReplayModel is a Bubble Tea model for a replayed changelog batch.
type ReplayModel struct {
	view        *reader.ReplayView
	summaryOnly bool
	table       table.Model
	width       int
	height      int
	quitting    bool
}

// NewReplayModel creates a replay model. summaryOnly hides the entry table
// until toggled.
func NewReplayModel(view *reader.ReplayView, summaryOnly bool) ReplayModel {
	t := table.New(
		table.WithColumns(entryColumns),
		table.WithRows(entryRows(view)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(primaryColor)
	t.SetStyles(styles)

	return ReplayModel{view: view, summaryOnly: summaryOnly, table: t}
}

// entryRows interleaves missing-changes notices with entries at the
// position they arrived.
func entryRows(view *reader.ReplayView) []table.Row {
	gaps := make(map[int][]reader.GapRow, len(view.Gaps))
	for _, g := range view.Gaps {
		gaps[g.AfterSeq] = append(gaps[g.AfterSeq], g)
	}

	rows := make([]table.Row, 0, len(view.Entries)+len(view.Gaps))
	rows = appendGaps(rows, gaps[0])
	for _, e := range view.Entries {
		rows = append(rows, table.Row{
			strconv.Itoa(e.Seq),
			strconv.FormatInt(e.ChangeNumber, 10),
			e.ChangeType,
			e.TargetDN,
			e.ResumeToken,
		})
		rows = appendGaps(rows, gaps[e.Seq])
	}
	return rows
}

func appendGaps(rows []table.Row, gaps []reader.GapRow) []table.Row {
	for _, g := range gaps {
		msg := g.Message
		if msg == "" {
			msg = "(no message)"
		}
		rows = append(rows, table.Row{"-", "-", "gap", msg, ""})
	}
	return rows
}

// Init implements tea.Model.
func (m ReplayModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(3, msg.Height-summaryLines))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Summary):
			m.summaryOnly = !m.summaryOnly
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderSummary())
	if !m.summaryOnly {
		b.WriteString("\n")
		if len(m.view.Entries) == 0 && len(m.view.Gaps) == 0 {
			b.WriteString(HelpStyle.Render("(no entries)"))
		} else {
			b.WriteString(m.table.View())
		}
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ scroll • s toggle entries • q quit"))
	return b.String()
}

func (m ReplayModel) renderSummary() string {
	s := m.view.Summary

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Changelog Batch"))
	b.WriteString("\n")

	rows := [][]string{
		{"Request ID", s.RequestID},
		{"Captured At", s.CapturedAt},
		{"State", s.State},
		{"Result", s.ResultCode},
		{"Resume Token", s.LastResumeToken},
		{"More Changes", strconv.FormatBool(s.MoreChangesAvailable)},
	}
	if s.EstimatedRemaining != nil {
		rows = append(rows, []string{"Remaining", strconv.Itoa(int(*s.EstimatedRemaining))})
	}
	if s.Diagnostic != "" {
		rows = append(rows, []string{"Diagnostic", s.Diagnostic})
	}
	if s.Error != "" {
		rows = append(rows, []string{"Error", s.Error})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		var value string
		switch row[0] {
		case "State":
			value = StateStyle(row[1]).Render(row[1])
		case "Error":
			value = ErrorStyle.Render(row[1])
		default:
			value = ValueStyle.Render(row[1])
		}
		fmt.Fprintf(&b, "%s %s\n", label, value)
	}

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Entries", s.Entries, successColor),
		renderStatBox("Missing", s.MissingNotices, warningColor),
		renderStatBox("Other", s.OtherResponses, highlightColor),
	)
	return BoxStyle.Render(b.String()) + "\n" + boxes
}

func renderStatBox(label string, value int, color lipgloss.Color) string {
	valueStr := StatValueStyle.Foreground(color).Render(strconv.Itoa(value))
	labelStr := StatLabelStyle.Render(label)
	return StatBoxStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}
