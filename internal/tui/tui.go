// Package tui provides a Bubble Tea terminal user interface for catalog-downloader.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/download"
	"github.com/handiism/catalog-downloader/internal/export"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is how many progress lines stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *slog.Logger
	logs      []LogEntry
	inputErr  string
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	// Manager of the current run and its event feed. run numbers the runs;
	// messages carrying an older number are dropped.
	run     int
	manager *download.Manager
	events  chan download.ProgressEvent

	// Progress
	records      int
	fromSnapshot bool
	filesDone    int
	filesTotal   int
	summary      download.Summary
	exported     string

	// Options
	sfw        bool
	convertJPG bool
	exportCSV  bool
	verbose    bool

	width  int
	height int
}

// NewModel creates a new TUI model. settings is copied for every run so
// toggles never leak into the caller's value.
func NewModel(settings *config.Settings, logger *slog.Logger) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(settings.TargetCount)
	ti.SetValue(strconv.Itoa(settings.TargetCount))
	ti.Focus()
	ti.CharLimit = 9
	ti.Width = 20
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:      StateInput,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		logger:     logger,
		logs:       make([]LogEntry, 0),
		ctx:        ctx,
		cancel:     cancel,
		sfw:        settings.SFW,
		convertJPG: settings.ConvertAssetsToJPG,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent when the manager reports progress.
	ProgressMsg struct {
		Run   int
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent when the catalog is available.
	InitDoneMsg struct {
		Run          int
		Records      int
		FromSnapshot bool
		Err          error
	}

	// DownloadDoneMsg is sent when all assets are resolved.
	DownloadDoneMsg struct {
		Run      int
		Summary  download.Summary
		Exported string
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput {
				target, err := strconv.Atoi(m.textInput.Value())
				if err != nil || target <= 0 {
					m.inputErr = "target count must be a positive number"
					return m, nil
				}
				m.inputErr = ""
				m.state = StateInitializing
				m.startRun(target)
				return m, tea.Batch(m.initialize(), m.waitForEvent(), m.tickProgress(), m.spinner.Tick)
			}

		case "s":
			if m.state == StateInput {
				m.sfw = !m.sfw
				return m, nil
			}

		case "j":
			if m.state == StateInput {
				m.convertJPG = !m.convertJPG
				return m, nil
			}

		case "x":
			if m.state == StateInput {
				m.exportCSV = !m.exportCSV
				return m, nil
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new run
				m.cancel()
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.records = 0
				m.fromSnapshot = false
				m.filesDone = 0
				m.filesTotal = 0
				m.summary = download.Summary{}
				m.exported = ""
				m.manager = nil
				m.events = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Run != m.run {
			break
		}
		cmds = append(cmds, m.waitForEvent())
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case InitDoneMsg:
		if msg.Run != m.run || m.state != StateInitializing {
			break
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.records = msg.Records
			m.fromSnapshot = msg.FromSnapshot
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload())
		}

	case DownloadDoneMsg:
		if msg.Run != m.run || m.state != StateDownloading {
			break
		}
		m.summary = msg.Summary
		m.exported = msg.Exported
		m.filesDone = msg.Summary.Downloaded + msg.Summary.Skipped + len(msg.Summary.Faulty)
		m.filesTotal = msg.Summary.Total
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && (m.state == StateInitializing || m.state == StateDownloading) {
			m.records, m.filesDone, m.filesTotal = m.manager.GetProgress()
			if m.state == StateDownloading {
				cmds = append(cmds, m.progress.SetPercent(m.percent()))
			}
			cmds = append(cmds, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// runSettings returns a copy of the base settings with the UI options applied.
func (m Model) runSettings(target int) *config.Settings {
	s := *m.settings
	s.TargetCount = target
	s.SFW = m.sfw
	s.ConvertAssetsToJPG = m.convertJPG
	return &s
}

// startRun creates the manager for a run. Its progress callback never blocks:
// events are dropped when the UI falls behind.
func (m *Model) startRun(target int) {
	m.run++
	events := make(chan download.ProgressEvent, 64)
	m.events = events
	m.manager = download.NewManager(m.runSettings(target), m.logger, func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	})
}

func (m Model) percent() float64 {
	if m.filesTotal == 0 {
		return 0
	}
	return float64(m.filesDone) / float64(m.filesTotal)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next manager event as a ProgressMsg.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	ctx := m.ctx
	run := m.run
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case event := <-events:
			return ProgressMsg{Run: run, Event: event}
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Catalog Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetch a ranked catalog and its cover images"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Number of records to fetch:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.inputErr != "" {
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Safe for work only (s)\n", checkbox(m.sfw)))
	b.WriteString(fmt.Sprintf("  %s Convert images to JPEG (j)\n", checkbox(m.convertJPG)))
	b.WriteString(fmt.Sprintf("  %s Export CSV when done (x)\n", checkbox(m.exportCSV)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Snapshot: %s  Images: %s", m.settings.SnapshotPath, m.settings.AssetsDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Acquiring catalog..."))
	if m.records > 0 {
		b.WriteString(" ")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d records", m.records)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	source := "fetched"
	if m.fromSnapshot {
		source = "from snapshot"
	}
	b.WriteString(successStyle.Render(fmt.Sprintf("Catalog: %d records (%s)", m.records, source)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Images: %d/%d", m.filesDone, m.filesTotal)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	content := fmt.Sprintf(
		"Download Complete!\n\n"+
			"Records: %d\n"+
			"Downloaded: %d\n"+
			"Already present: %d\n"+
			"Without image: %d",
		m.summary.Total,
		m.summary.Downloaded,
		m.summary.Skipped,
		len(m.summary.Faulty),
	)
	if m.exported != "" {
		content += "\nExported: " + m.exported
	}
	b.WriteString(boxStyle.Render(content))

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "-"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • s: sfw • j: jpeg • x: export • v: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

// initialize gathers the catalog in the background.
func (m Model) initialize() tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	run := m.run
	return func() tea.Msg {
		if err := manager.Initialize(ctx); err != nil {
			return InitDoneMsg{Run: run, Err: err}
		}
		return InitDoneMsg{
			Run:          run,
			Records:      len(manager.Catalog()),
			FromSnapshot: manager.FromSnapshot(),
		}
	}
}

// startDownload downloads the assets in the background, then exports when
// requested.
func (m Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	exportCSV := m.exportCSV
	settings := m.settings
	run := m.run
	return func() tea.Msg {
		msg := downloadAndExport(ctx, manager, settings, exportCSV)
		msg.Run = run
		return msg
	}
}

// downloadAndExport downloads the assets, then writes the export when asked.
func downloadAndExport(ctx context.Context, manager *download.Manager, settings *config.Settings, exportCSV bool) DownloadDoneMsg {
	if manager == nil {
		return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
	}

	summary, err := manager.StartDownloads(ctx)
	if err != nil || !exportCSV {
		return DownloadDoneMsg{Summary: summary, Err: err}
	}

	mode, err := export.ParseTagSerialization(settings.TagSerialization)
	if err != nil {
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
	exp := export.NewExporter(mode, settings.AssetsDir, settings.AssetExt)
	if err := exp.WriteFile(settings.ExportPath, manager.Catalog()); err != nil {
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
	return DownloadDoneMsg{Summary: summary, Exported: settings.ExportPath}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
