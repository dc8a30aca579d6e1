package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/timelapse/timelapse"
)

// File log entry for the processed files list
type FileLogEntry struct {
	Path   string
	Status string // "✓", "❌"
	Error  string
}

func (f FileLogEntry) FilterValue() string { return f.Path }
func (f FileLogEntry) Title() string       { return filepath.Base(f.Path) }
func (f FileLogEntry) Description() string {
	if f.Error != "" {
		return fmt.Sprintf("❌ %s", f.Error)
	}
	return "✓ written"
}

// TUIModel shows the progress of a single time lapse run
type TUIModel struct {
	// Run state, fed by events
	events    <-chan timelapse.Event
	cancel    func()
	total     int
	processed int
	status    string
	entries   []FileLogEntry
	final     *timelapse.Event

	// UI components
	progress progress.Model
	spinner  spinner.Model
	fileList list.Model

	// Layout
	width  int
	height int

	// Control state
	cancelling bool
	quitting   bool

	// Version for display
	Version string
}

// NewTUIModel creates a model that consumes events until the run ends.
// cancel is called when the user asks to stop.
func NewTUIModel(events <-chan timelapse.Event, total int, cancel func(), version string) TUIModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ProcessingStyle

	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Processed Images"
	fileList.SetShowHelp(false)
	fileList.SetFilteringEnabled(false)

	if cancel == nil {
		cancel = func() {}
	}

	return TUIModel{
		events:   events,
		cancel:   cancel,
		total:    total,
		status:   "Starting",
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
		fileList: fileList,
		Version:  version,
	}
}

// Init implements tea.Model
func (m TUIModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update implements tea.Model
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The run finalizes the video before it reports back, so keep waiting
			if !m.cancelling {
				m.cancelling = true
				m.status = "Cancelling after the current image..."
				m.cancel()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-24, 10)
		m.fileList.SetSize(msg.Width-4, msg.Height/2)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RunEventMsg:
		return m.applyEvent(msg.Event)

	case RunClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m TUIModel) applyEvent(ev timelapse.Event) (tea.Model, tea.Cmd) {
	if ev.Total > 0 {
		m.total = ev.Total
	}
	m.processed = ev.Processed
	if !m.cancelling || ev.Terminal() {
		m.status = ev.Status
	}

	switch ev.Kind {
	case timelapse.EventProgress:
		m.addEntry(FileLogEntry{Path: ev.Path, Status: "✓"})
	case timelapse.EventFileError:
		entry := FileLogEntry{Path: ev.Path, Status: "❌"}
		if ev.Err != nil {
			entry.Error = decodeCause(ev.Err)
		}
		m.addEntry(entry)
	case timelapse.EventCompleted, timelapse.EventFailed:
		final := ev
		m.final = &final
		m.quitting = true
		return m, tea.Quit
	}

	return m, waitForEvent(m.events)
}

func (m *TUIModel) addEntry(entry FileLogEntry) {
	m.entries = append(m.entries, entry)
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = e
	}
	m.fileList.SetItems(items)
	m.fileList.Select(len(items) - 1)
}

// Final returns the terminal event, or nil if the run did not report one
func (m TUIModel) Final() *timelapse.Event {
	return m.final
}

// View implements tea.Model
func (m TUIModel) View() string {
	header := HeaderStyle.Render(fmt.Sprintf("Time Lapse Creator %s", m.Version))

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	overall := fmt.Sprintf("Progress: %s (%d/%d)", m.progress.ViewAs(percent), m.processed, m.total)

	var status string
	switch {
	case m.final != nil && m.final.Kind == timelapse.EventCompleted:
		status = SuccessStyle.Render("✅ " + m.status)
	case m.final != nil:
		status = ErrorStyle.Render("❌ " + m.status)
	case m.cancelling:
		status = WarningStyle.Render(m.spinner.View() + " " + m.status)
	default:
		status = ProcessingStyle.Render(m.spinner.View() + " " + m.status)
	}

	controls := "Controls: [q] Cancel"
	if m.quitting {
		controls = ""
	}

	sections := []string{header, overall, status, m.fileList.View(), controls}
	return strings.Join(sections, "\n\n") + "\n"
}

// decodeCause trims the path from a decode error, the list already shows it
func decodeCause(err error) string {
	var de *timelapse.DecodeError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}

// RunTUI shows the interactive progress display until the run ends and
// returns its terminal event.
func RunTUI(events <-chan timelapse.Event, total int, cancel func(), version string) (*timelapse.Event, error) {
	model := NewTUIModel(events, total, cancel, version)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, err
	}
	m, ok := finalModel.(TUIModel)
	if !ok || m.Final() == nil {
		return nil, errors.New("time lapse run ended without a result")
	}
	return m.Final(), nil
}
