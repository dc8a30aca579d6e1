package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/timelapse/timelapse"
)

// TUI message types for pipeline communication
type RunEventMsg struct {
	Event timelapse.Event
}

// RunClosedMsg is sent if the event channel closes without a terminal event
type RunClosedMsg struct{}

// waitForEvent blocks on the run's event channel and delivers the next event
func waitForEvent(events <-chan timelapse.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return RunClosedMsg{}
		}
		return RunEventMsg{Event: ev}
	}
}
