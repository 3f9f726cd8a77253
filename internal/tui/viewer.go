package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tracelens/tracelens/internal/export"
	"github.com/tracelens/tracelens/internal/trace"
)

// ViewMode represents the current viewing mode
type ViewMode int

const (
	ListView ViewMode = iota
	DetailView
)

// DetailTab represents the active tab in the details panel
type DetailTab int

const (
	TabOverview DetailTab = iota
	TabParams
	TabNetwork
	TabConsole
	TabError
)

var detailTabNames = []string{"Overview", "Params", "Network", "Console", "Error"}

// Model is the bubbletea model for the trace viewer. It consumes the
// trace model read-only.
type Model struct {
	model      *trace.Model
	uploadName string

	traceIdx   int
	cursor     int
	errorsOnly bool
	searching  bool
	query      string
	viewMode   ViewMode
	detailTab  DetailTab

	listViewport   viewport.Model
	detailViewport viewport.Model
	ready          bool
	width          int
	height         int
}

// NewViewer creates a viewer over a loaded model.
func NewViewer(m *trace.Model, uploadName string) Model {
	return Model{
		model:          m,
		uploadName:     uploadName,
		listViewport:   viewport.New(40, 10),
		detailViewport: viewport.New(40, 10),
	}
}

func (m Model) currentTrace() *trace.Trace {
	t, err := m.model.Trace(m.traceIdx)
	if err != nil {
		return nil
	}
	return t
}

// visibleActions applies the errors-only toggle and the search query.
func (m Model) visibleActions() []*trace.Action {
	t := m.currentTrace()
	if t == nil {
		return nil
	}
	if !m.errorsOnly && m.query == "" {
		return t.Actions
	}
	q := strings.ToLower(m.query)
	var out []*trace.Action
	for _, a := range t.Actions {
		if m.errorsOnly && !a.HasError() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name()), q) &&
			!strings.Contains(strings.ToLower(a.Title), q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (m Model) selectedAction() *trace.Action {
	actions := m.visibleActions()
	if m.cursor < 0 || m.cursor >= len(actions) {
		return nil
	}
	return actions[m.cursor]
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.viewMode {
		case ListView:
			return m.updateListView(msg)
		case DetailView:
			return m.updateDetailView(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		availableWidth := msg.Width - 6
		availableHeight := msg.Height - 8
		leftWidth := (availableWidth * 45) / 100
		rightWidth := availableWidth - leftWidth

		if !m.ready {
			m.listViewport = viewport.New(leftWidth-2, availableHeight)
			m.detailViewport = viewport.New(rightWidth-2, availableHeight)
			m.ready = true
		} else {
			m.listViewport.Width = leftWidth - 2
			m.listViewport.Height = availableHeight
			m.detailViewport.Width = rightWidth - 2
			m.detailViewport.Height = availableHeight
		}
		m.syncViewports()
	}

	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearch(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.searching = true
		m.cursor = 0

	case "esc":
		if m.query != "" {
			m.query = ""
			m.cursor = 0
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visibleActions())-1 {
			m.cursor++
		}

	case "tab", "]":
		if m.traceIdx < len(m.model.Traces())-1 {
			m.traceIdx++
			m.cursor = 0
		}

	case "shift+tab", "[":
		if m.traceIdx > 0 {
			m.traceIdx--
			m.cursor = 0
		}

	case "e":
		m.errorsOnly = !m.errorsOnly
		m.cursor = 0

	case "enter":
		if m.selectedAction() != nil {
			m.viewMode = DetailView
			m.detailTab = TabOverview
		}
	}

	m.syncViewports()
	return m, nil
}

// updateSearch edits the query in place; the list filters as it changes.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if len(m.query) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.query)
			m.query = m.query[:len(m.query)-size]
		}
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	case tea.KeySpace:
		m.query += " "
	}
	m.cursor = 0
	m.syncViewports()
	return m, nil
}

func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.viewMode = ListView

	case "left", "h":
		if m.detailTab > 0 {
			m.detailTab--
		}

	case "right", "l":
		if int(m.detailTab) < len(detailTabNames)-1 {
			m.detailTab++
		}

	default:
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}

	m.syncViewports()
	return m, nil
}

func (m *Model) syncViewports() {
	if !m.ready {
		return
	}
	m.listViewport.SetContent(m.renderActionList())
	m.detailViewport.SetContent(m.renderDetail())

	// Keep cursor visible.
	if m.cursor < m.listViewport.YOffset {
		m.listViewport.YOffset = m.cursor
	}
	if m.cursor >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.YOffset = m.cursor - m.listViewport.Height + 1
	}
}

// View renders the viewer
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	var body string
	if m.viewMode == DetailView {
		body = BoxStyle.Render(m.detailViewport.View())
	} else {
		left := BoxStyle.Render(m.listViewport.View())
		right := BoxStyle.Render(m.detailViewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	help := m.renderHelp()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render(fmt.Sprintf(" tracelens · %s ", m.uploadName))

	var tabs []string
	for i, t := range m.model.Traces() {
		label := t.DisplayTitle()
		if len(label) > 24 {
			label = label[:21] + "..."
		}
		if t.Degraded() {
			label += " ✗"
		}
		if i == m.traceIdx {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}

	filter := ""
	if m.errorsOnly {
		filter = ErrorStyle.Render(" [errors only]")
	}
	if m.searching {
		filter += WarningStyle.Render(" /" + m.query + "▌")
	} else if m.query != "" {
		filter += WarningStyle.Render(" /" + m.query)
	}
	return title + " " + strings.Join(tabs, " ") + filter
}

func (m Model) renderActionList() string {
	t := m.currentTrace()
	if t == nil {
		return MutedStyle.Render("no trace")
	}
	if t.Degraded() {
		return ErrorStyle.Render("failed to load:\n") + t.LoadError
	}

	actions := m.visibleActions()
	if len(actions) == 0 {
		switch {
		case m.query != "":
			return MutedStyle.Render("no matching actions")
		case m.errorsOnly:
			return MutedStyle.Render("no failed actions")
		default:
			return MutedStyle.Render("no actions recorded")
		}
	}

	var b strings.Builder
	for i, a := range actions {
		marker := statusMarker(a)
		line := fmt.Sprintf("%s %3d. %s %s", marker, i+1, a.Name(), DurationStyle.Render(formatDuration(a)))
		if i == m.cursor {
			line = SelectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func statusMarker(a *trace.Action) string {
	switch {
	case a.HasError():
		return ErrorStyle.Render("✗")
	case a.Open, a.Unpaired:
		return WarningStyle.Render("◌")
	default:
		return SuccessStyle.Render("✓")
	}
}

func formatDuration(a *trace.Action) string {
	if a.Open {
		return "open"
	}
	if a.Unpaired {
		return "unpaired"
	}
	return fmt.Sprintf("%.0fms", a.Duration())
}

func (m Model) renderDetail() string {
	a := m.selectedAction()
	if a == nil {
		return m.renderTraceSummary()
	}

	var b strings.Builder

	// Tab bar
	var tabs []string
	for i, name := range detailTabNames {
		if DetailTab(i) == m.detailTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, TabStyle.Render(name))
		}
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	switch m.detailTab {
	case TabOverview:
		b.WriteString(SectionHeaderStyle.Render(" "+a.Name()+" ") + "\n\n")
		fmt.Fprintf(&b, "Call ID:   %s\n", a.CallID)
		if a.Title != "" {
			fmt.Fprintf(&b, "Title:     %s\n", a.Title)
		}
		fmt.Fprintf(&b, "Start:     %.0fms\n", a.StartTime)
		fmt.Fprintf(&b, "Duration:  %s\n", formatDuration(a))
		if a.PageID != "" {
			fmt.Fprintf(&b, "Page:      %s\n", a.PageID)
		}
		if a.ParentID != "" {
			fmt.Fprintf(&b, "Parent:    %s\n", a.ParentID)
		}
		if len(a.Attachments) > 0 {
			b.WriteString("\nAttachments:\n")
			for _, att := range a.Attachments {
				fmt.Fprintf(&b, "  • %s\n", att.Name)
			}
		}
		if len(a.Log) > 0 {
			b.WriteString("\nLog:\n")
			for _, l := range a.Log {
				fmt.Fprintf(&b, "  %6.0fms  %s\n", l.Time, l.Message)
			}
		}

	case TabParams:
		if len(a.Params) == 0 {
			b.WriteString(MutedStyle.Render("no parameters"))
		} else {
			b.WriteString(export.ParamsJSON(a.Params))
		}

	case TabNetwork:
		if len(a.Network) == 0 {
			b.WriteString(MutedStyle.Render("no network activity"))
		}
		for _, n := range a.Network {
			line := fmt.Sprintf("%3d %-4s %s", n.Status, n.Method, n.URL)
			if n.Failed() {
				line = ErrorStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}

	case TabConsole:
		if len(a.Console) == 0 {
			b.WriteString(MutedStyle.Render("no console output"))
		}
		for _, c := range a.Console {
			line := fmt.Sprintf("[%s] %s", c.Severity, c.Text)
			if c.IsError() {
				line = ErrorStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}

	case TabError:
		if a.Error == nil {
			b.WriteString(SuccessStyle.Render("no error"))
		} else {
			b.WriteString(ErrorStyle.Render(a.Error.Message) + "\n")
			if a.Error.Stack != "" {
				b.WriteString("\n" + MutedStyle.Render(a.Error.Stack))
			}
		}
	}

	return b.String()
}

func (m Model) renderTraceSummary() string {
	t := m.currentTrace()
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(SectionHeaderStyle.Render(" "+t.DisplayTitle()+" ") + "\n\n")
	if t.Browser != "" {
		fmt.Fprintf(&b, "Browser:   %s\n", t.Browser)
	}
	fmt.Fprintf(&b, "Duration:  %.2fs\n", t.Duration()/1000.0)
	fmt.Fprintf(&b, "Actions:   %d (%d failed)\n", len(t.Actions), t.FailedActions())
	if n := t.Unattributed.Size(); n > 0 {
		fmt.Fprintf(&b, "Unattributed entries: %d\n", n)
	}
	s := t.Stats
	if s.MalformedLines+s.UnknownEvents+s.UnpairedEnds+s.OpenActions > 0 {
		b.WriteString("\n" + WarningStyle.Render("Anomalies") + "\n")
		if s.MalformedLines > 0 {
			fmt.Fprintf(&b, "  malformed lines: %d\n", s.MalformedLines)
		}
		if s.UnknownEvents > 0 {
			fmt.Fprintf(&b, "  unknown events:  %d\n", s.UnknownEvents)
		}
		if s.UnpairedEnds > 0 {
			fmt.Fprintf(&b, "  unpaired ends:   %d\n", s.UnpairedEnds)
		}
		if s.OpenActions > 0 {
			fmt.Fprintf(&b, "  open actions:    %d\n", s.OpenActions)
		}
	}
	return b.String()
}

func (m Model) renderHelp() string {
	if m.viewMode == DetailView {
		return HelpStyle.Render("←/→ tabs · ↑/↓ scroll · esc back · q quit")
	}
	if m.searching {
		return HelpStyle.Render("type to filter · enter keep · esc clear")
	}
	return HelpStyle.Render("↑/↓ move · enter details · tab switch trace · e errors only · / search · q quit")
}
