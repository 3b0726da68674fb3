package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shopsearch/internal/domain"
	"shopsearch/internal/orchestrator"
	"shopsearch/internal/session"
)

// SearchPort is the TUI-facing subset of the orchestrator.
type SearchPort interface {
	Begin(query string) (orchestrator.Ticket, error)
	Execute(ctx context.Context, t orchestrator.Ticket) domain.State
	ResetSession()
	State() domain.State
	Session() domain.Session
	Turns() []session.Turn
}

// stateMsg delivers the orchestrator state after a request completes.
type stateMsg struct {
	state domain.State
}

// Model is the Bubble Tea model for the search client.
type Model struct {
	ctx         context.Context
	service     SearchPort
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	state       domain.State
	status      string
	cursor      int
	ready       bool
	showHistory bool
}

// New creates a new TUI model instance. ctx bounds every request it issues.
func New(ctx context.Context, service SearchPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search for skincare products..."
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		state:    service.State(),
		status:   "Type a question or what you are looking for, then press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and request events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // title + session badge
		totalFooterLines := 2                                    // status + key help
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case stateMsg:
		m.state = msg.state
		m.cursor = 0
		m.status = statusFor(m.state)
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if _, pending := m.state.(domain.Pending); !pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if cmd := m.submit(m.input.Value()); cmd != nil {
				m.input.SetValue("")
				return m, cmd
			}
			return m, nil
		case "ctrl+f":
			if q, ok := m.followUp(); ok {
				return m, m.submit(q)
			}
			return m, nil
		case "ctrl+n":
			m.service.ResetSession()
			m.state = m.service.State()
			m.cursor = 0
			m.input.SetValue("")
			m.status = "Started a new session."
			m.refresh()
			return m, nil
		case "ctrl+t":
			m.showHistory = !m.showHistory
			m.refresh()
			return m, nil
		case "down":
			if n := len(products(m.state)); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.refresh()
				return m, nil
			}
		case "up":
			if n := len(products(m.state)); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.refresh()
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit moves the orchestrator to Pending and returns the command that runs
// the request. Blank queries return nil.
func (m *Model) submit(query string) tea.Cmd {
	ticket, err := m.service.Begin(query)
	if err != nil {
		return nil
	}
	m.state = m.service.State()
	m.cursor = 0
	m.status = fmt.Sprintf("Searching for %q", ticket.Request.Query)
	m.refresh()
	service, ctx := m.service, m.ctx
	run := func() tea.Msg {
		return stateMsg{state: service.Execute(ctx, ticket)}
	}
	return tea.Batch(run, m.spinner.Tick)
}

func (m Model) followUp() (string, bool) {
	settled, ok := m.state.(domain.Settled)
	if !ok {
		return "", false
	}
	return settled.Result.FollowUp()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Skincare Store") + "  " + subtleStyle.Render("Your AI-powered personal skincare shopper")
	badge := m.renderSessionBadge()
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	help := subtleStyle.Render("enter search • ctrl+f follow-up • ctrl+n new session • ↑/↓ products • ctrl+t history • ctrl+c quit")
	return header + "\n" + badge + "\n" + results + "\n" + input + "\n" + status + "\n" + help
}

func (m Model) renderSessionBadge() string {
	s := m.service.Session()
	if !s.Active() {
		return subtleStyle.Render("No active session")
	}
	return sessionStyle.Render(fmt.Sprintf("● Session active • turn %d • personalized recommendations enabled", s.TurnCount))
}

func statusFor(st domain.State) string {
	switch v := st.(type) {
	case domain.Settled:
		msg := fmt.Sprintf("Results for %q", v.Query)
		if v.Dropped > 0 {
			msg += fmt.Sprintf(" (%d unreadable products skipped)", v.Dropped)
		}
		return msg
	case domain.Failed:
		return "Search failed. Edit your query and press Enter to retry."
	case domain.Pending:
		return fmt.Sprintf("Searching for %q", v.Query)
	default:
		return "Ready."
	}
}

func products(st domain.State) []domain.Product {
	settled, ok := st.(domain.Settled)
	if !ok {
		return nil
	}
	switch r := settled.Result.(type) {
	case *domain.Answer:
		return r.RelatedProducts
	case *domain.Recommendation:
		return r.Products
	default:
		return nil
	}
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sessionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	followUpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	contextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	priceStyle     = lipgloss.NewStyle().Bold(true)
	tagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
