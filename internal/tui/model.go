// Package tui is the terminal presentation of the operator console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tendant/simple-idm-console/pkg/cache"
	"github.com/tendant/simple-idm-console/pkg/console"
	"github.com/tendant/simple-idm-console/pkg/domain"
	"github.com/tendant/simple-idm-console/pkg/revocation"
	"github.com/tendant/simple-idm-console/pkg/sessiondetail"
)

// keyMap defines the keyboard shortcuts
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Revoke  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Retry   key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Revoke:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "revoke session")),
	Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// labels are the English texts of the detail field labels.
var labels = map[sessiondetail.LabelKey]string{
	sessiondetail.LabelSessionID:    "Session ID",
	sessiondetail.LabelUserID:       "User ID",
	sessiondetail.LabelSignedInAt:   "Signed in at",
	sessiondetail.LabelDevice:       "Device",
	sessiondetail.LabelBrowser:      "Browser",
	sessiondetail.LabelOS:           "Operating system",
	sessiondetail.LabelIP:           "IP address",
	sessiondetail.LabelLocation:     "Location",
	sessiondetail.LabelApplications: "Authorized applications",
}

// Config configures the console model.
type Config struct {
	Service  *console.Service
	UserID   string
	Operator string
	// SessionID, when set, opens that session's detail on top of the list.
	SessionID string
	Options   sessiondetail.Options
}

// Model represents the TUI application state
type Model struct {
	ctx      context.Context
	service  *console.Service
	userID   string
	operator string
	opts     sessiondetail.Options
	nav      *Stack

	// List screen
	sessions    []sessionRow
	cursor      int
	listErr     error
	listLoading bool

	// Detail screen
	detail        console.Detail
	detailErr     error
	detailLoading bool
	coord         *revocation.Coordinator
	effects       *viewEffects
	modalOpen     bool
	executing     bool
	banner        string

	spinner  spinner.Model
	styles   Styles
	width    int
	height   int
	quitting bool
}

type sessionRow struct {
	id         string
	header     string
	signedInAt string
}

// NewModel creates a new console model
func NewModel(ctx context.Context, cfg Config) Model {
	nav := NewStack(Screen{Kind: ScreenList})
	if cfg.SessionID != "" {
		nav.Push(Screen{Kind: ScreenDetail, SessionID: cfg.SessionID})
	}

	styles := DefaultStyles()
	return Model{
		ctx:           ctx,
		service:       cfg.Service,
		userID:        cfg.UserID,
		operator:      cfg.Operator,
		opts:          cfg.Options,
		nav:           nav,
		listLoading:   true,
		detailLoading: cfg.SessionID != "",
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Key)),
		styles:        styles,
	}
}

// Custom messages for loads and revocations

// SessionsLoadedMsg carries the result of loading the session list
type SessionsLoadedMsg struct {
	Sessions []domain.SessionRecord
	Err      error
}

// DetailLoadedMsg carries the result of loading a session detail
type DetailLoadedMsg struct {
	SessionID string
	Detail    console.Detail
	Err       error
}

// RevokeDoneMsg reports that a confirmed revoke completed
type RevokeDoneMsg struct {
	Coordinator *revocation.Coordinator
	Err         error
}

// Init loads the current screen and starts the spinner (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadSessions(false)}
	if cur := m.nav.Current(); cur.Kind == ScreenDetail {
		cmds = append(cmds, m.loadDetail(cur.SessionID, false))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SessionsLoadedMsg:
		m.listLoading = false
		m.listErr = msg.Err
		if msg.Err == nil {
			m.setSessions(msg.Sessions)
		}
		return m, nil

	case DetailLoadedMsg:
		cur := m.nav.Current()
		if cur.Kind != ScreenDetail || cur.SessionID != msg.SessionID {
			return m, nil
		}
		m.detailLoading = false
		m.detailErr = msg.Err
		if msg.Err == nil {
			m.detail = msg.Detail
		}
		return m, nil

	case RevokeDoneMsg:
		if msg.Coordinator != m.coord {
			// The detail screen that started this revoke is gone.
			return m, nil
		}
		m.executing = false
		if errors.Is(msg.Err, domain.ErrRevocationInProgress) {
			m.banner = "A revoke of this session is already running."
		}
		return m.applyEffects()
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.modalOpen {
		return m.handleModalKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		return m.back()
	}

	if m.nav.Current().Kind == ScreenList {
		return m.handleListKey(msg)
	}
	return m.handleDetailKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Retry):
		m.listLoading = true
		return m, m.loadSessions(true)
	case key.Matches(msg, keys.Open):
		if len(m.sessions) == 0 {
			return m, nil
		}
		sessionID := m.sessions[m.cursor].id
		m.banner = ""
		m.nav.Push(Screen{Kind: ScreenDetail, SessionID: sessionID})
		m.resetDetail()
		m.detailLoading = true
		return m, m.loadDetail(sessionID, false)
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.nav.Current()
	switch {
	case key.Matches(msg, keys.Retry):
		m.detailLoading = true
		return m, m.loadDetail(cur.SessionID, true)
	case key.Matches(msg, keys.Revoke):
		if m.executing || m.detail.Record == nil {
			return m, nil
		}
		if m.coord == nil {
			m.effects = &viewEffects{}
			m.coord = m.service.NewCoordinator(m.userID, cur.SessionID, console.View{
				Navigator: m.effects,
				Modal:     m.effects,
				Notifier:  m.effects,
				Operator:  m.operator,
			})
		}
		if err := m.coord.Open(); err != nil {
			m.banner = err.Error()
			return m, nil
		}
		m.banner = ""
		return m.applyEffects()
	}
	return m, nil
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.executing {
		if key.Matches(msg, keys.Back) {
			return m.back()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Confirm):
		m.executing = true
		coord := m.coord
		ctx := m.ctx
		return m, func() tea.Msg {
			return RevokeDoneMsg{Coordinator: coord, Err: coord.Confirm(ctx)}
		}
	case key.Matches(msg, keys.Cancel):
		m.coord.Cancel()
		return m.applyEffects()
	}
	return m, nil
}

// back leaves the current screen. Leaving a detail screen tears down its
// coordinator so an in-flight revoke no longer touches it.
func (m Model) back() (tea.Model, tea.Cmd) {
	if m.nav.Current().Kind == ScreenList {
		m.quitting = true
		return m, tea.Quit
	}

	if m.coord != nil {
		m.coord.Dispose()
	}
	m.nav.Pop()
	m.resetDetail()
	m.banner = ""
	m.listLoading = true
	return m, m.loadSessions(false)
}

func (m Model) applyEffects() (tea.Model, tea.Cmd) {
	if m.effects == nil {
		return m, nil
	}

	var cmds []tea.Cmd
	for _, e := range m.effects.drain() {
		switch e.kind {
		case effectOpenModal:
			m.modalOpen = true
		case effectCloseModal:
			m.modalOpen = false
		case effectFailed:
			m.banner = "Failed to revoke session: " + e.err.Error() + " (press x to try again)"
		case effectGoBack:
			m.nav.Pop()
			m.resetDetail()
			m.banner = "Session revoked."
			m.listLoading = true
			cmds = append(cmds, m.loadSessions(false))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resetDetail() {
	m.detail = console.Detail{}
	m.detailErr = nil
	m.detailLoading = false
	m.coord = nil
	m.effects = nil
	m.modalOpen = false
	m.executing = false
}

func (m *Model) setSessions(recs []domain.SessionRecord) {
	rows := make([]sessionRow, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		rows = append(rows, sessionRow{
			id:         rec.UID,
			header:     m.service.Describe(rec, m.userID, m.opts).Header,
			signedInAt: sessiondetail.NormalizeLoginTs(rec.LoginTs, m.opts.DateTimeFormat),
		})
	}
	m.sessions = rows
	if m.cursor >= len(m.sessions) {
		m.cursor = max(len(m.sessions)-1, 0)
	}
}

func (m Model) loadSessions(retry bool) tea.Cmd {
	svc, ctx, userID := m.service, m.ctx, m.userID
	return func() tea.Msg {
		if retry {
			svc.Retry(ctx, cache.SessionListKey(userID))
		}
		recs, res := svc.Sessions(ctx, userID)
		return SessionsLoadedMsg{Sessions: recs, Err: res.Err}
	}
}

func (m Model) loadDetail(sessionID string, retry bool) tea.Cmd {
	svc, ctx, userID, opts := m.service, m.ctx, m.userID, m.opts
	return func() tea.Msg {
		if retry {
			svc.Retry(ctx, cache.SessionKey(userID, sessionID))
		}
		detail, err := svc.Detail(ctx, userID, sessionID, opts)
		return DetailLoadedMsg{SessionID: sessionID, Detail: detail, Err: err}
	}
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.nav.Current().Kind == ScreenList {
		body = m.renderList()
	} else {
		body = m.renderDetail()
	}

	if m.banner != "" {
		style := m.styles.Error
		if m.nav.Current().Kind == ScreenList {
			style = m.styles.Success
		}
		body += "\n" + style.Render(m.banner)
	}
	return body
}

func (m Model) renderList() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Sessions of " + m.userID))
	b.WriteString("\n")

	switch {
	case m.listLoading && len(m.sessions) == 0:
		b.WriteString(m.spinner.View() + " Loading sessions…\n")
	case m.listErr != nil:
		b.WriteString(m.styles.Error.Render("Failed to load sessions: "+m.listErr.Error()) + "\n")
		b.WriteString(m.styles.Help.Render("r retry • q quit"))
		return b.String()
	case len(m.sessions) == 0:
		b.WriteString(m.styles.Muted.Render("No active sessions.") + "\n")
	}

	for i, row := range m.sessions {
		line := fmt.Sprintf("%-32s %-24s %s", row.header, row.signedInAt, row.id)
		if i == m.cursor {
			line = m.styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(m.styles.Help.Render("↑/↓ select • enter open • r reload • q quit"))
	return b.String()
}

func (m Model) renderDetail() string {
	var b strings.Builder

	switch {
	case m.detailLoading:
		b.WriteString(m.spinner.View() + " Loading session…\n")
		return b.String()
	case m.detailErr != nil:
		b.WriteString(m.styles.Error.Render("Failed to load session: "+m.detailErr.Error()) + "\n")
		b.WriteString(m.styles.Help.Render("r retry • esc back"))
		return b.String()
	}

	b.WriteString(m.styles.Title.Render(m.detail.Header))
	b.WriteString("\n")
	for _, f := range m.detail.Fields {
		b.WriteString(m.styles.Label.Render(labelText(f.Label)))
		b.WriteString(m.renderValue(f.Value))
		b.WriteString("\n")
	}

	if m.modalOpen {
		b.WriteString("\n")
		b.WriteString(m.renderModal())
		return b.String()
	}

	help := "esc back • r reload"
	if m.detail.Record != nil {
		help = "x revoke • " + help
	}
	b.WriteString(m.styles.Help.Render(help))
	return b.String()
}

func (m Model) renderValue(v sessiondetail.Value) string {
	switch v := v.(type) {
	case sessiondetail.CodeValue:
		return m.styles.Code.Render(v.Code)
	case sessiondetail.LinkListValue:
		parts := make([]string, len(v.Refs))
		for i, ref := range v.Refs {
			if ref.IsBuiltIn {
				parts[i] = m.styles.Value.Render(ref.ID)
			} else {
				parts[i] = m.styles.Link.Render(ref.ID)
			}
		}
		return strings.Join(parts, ", ")
	case sessiondetail.PlaceholderValue:
		return m.styles.Muted.Render(v.String())
	case nil:
		return m.styles.Muted.Render(sessiondetail.Placeholder)
	default:
		return m.styles.Value.Render(v.String())
	}
}

func (m Model) renderModal() string {
	var content string
	if m.executing {
		content = m.spinner.View() + " Revoking session…"
	} else {
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Error.Render("Revoke this session?"),
			"The device will be signed out and its authorized applications lose access.",
			"",
			m.styles.Key.Render("y")+" confirm   "+m.styles.Key.Render("n")+" cancel",
		)
	}
	return m.styles.Modal.Render(content)
}

func labelText(k sessiondetail.LabelKey) string {
	if s, ok := labels[k]; ok {
		return s
	}
	return string(k)
}

// Run starts the console program and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(NewModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
