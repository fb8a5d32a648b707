package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/extop/cli/reader"
)

// View types with TUI support.
const (
	ViewReplay        = "replay"
	ViewReplaySummary = "replay_summary"
)

// Run starts the TUI for viewType.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	model, err := newModel(viewType, data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders the initial TUI frame without a terminal program.
func RenderStatic(viewType string, data any, width, height int) (string, error) {
	model, err := newModel(viewType, data)
	if err != nil {
		return "", err
	}
	updated, _ := model.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return lipgloss.NewStyle().Padding(1, 2).Render(updated.View()), nil
}

func newModel(viewType string, data any) (tea.Model, error) {
	if !IsTUISupported(viewType) {
		return nil, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	view, ok := data.(*reader.ReplayView)
	if !ok || view == nil {
		return nil, fmt.Errorf("invalid data type %T for %s", data, viewType)
	}
	return NewReplayModel(view, viewType == ViewReplaySummary), nil
}

// IsTUISupported returns true if the view type supports TUI mode.
// Only the read-only replay views do.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewReplay, ViewReplaySummary}
}
