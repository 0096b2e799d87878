package app

import (
	"context"

	"github.com/authdemo/console/internal/client"
	"github.com/authdemo/console/internal/session"
	"github.com/authdemo/console/internal/theme"
	"github.com/authdemo/console/internal/views/debug"
	"github.com/authdemo/console/internal/views/login"
	"github.com/authdemo/console/internal/views/results"
	"github.com/authdemo/console/internal/views/status"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options tweaks presentation.
type Options struct {
	Pretty bool
	Style  string // glamour style for pretty results
}

// Model is the root Bubble Tea model and the session view controller.
// All session state changes happen in Update, on the event loop.
type Model struct {
	api    client.API
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	state session.State

	// Sub-views.
	statusBar status.Model
	form      login.Model
	results   results.Model
	debug     debug.Model

	showDebug bool
}

// New creates the root model.
func New(api client.API, endpoints client.Endpoints, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		api:       api,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(endpoints),
		form:      login.New(),
		results:   results.New(opts.Pretty, opts.Style),
		debug:     debug.New(),
	}
	m.form.Focus()
	return m
}

// State returns a copy of the controller state.
func (m Model) State() session.State {
	return m.state
}

// Init starts the cursor blinking in the focused form field.
func (m Model) Init() tea.Cmd {
	return m.form.Focus()
}

// Login submits the current credentials.
func (m *Model) Login() tea.Cmd {
	m.debug.Add(debug.KindAuth, "POST /login")
	return client.LoginCmd(m.ctx, m.api, m.state.Credentials)
}

// Logout ends the session.
func (m *Model) Logout() tea.Cmd {
	m.debug.Add(debug.KindAuth, "POST /logout")
	return client.LogoutCmd(m.ctx, m.api)
}

// Fetch requests t. It is available in every session state.
func (m *Model) Fetch(t client.Target) tea.Cmd {
	m.debug.Add(debug.KindFetch, "GET "+t.Label())
	return tea.Batch(m.results.Start(t), client.FetchCmd(m.ctx, m.api, t))
}

// SetCredentials mirrors typed text into the controller state.
func (m *Model) SetCredentials(username, password string) {
	m.state.SetUsername(username)
	m.state.SetPassword(password)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.results.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.LoginDoneMsg:
		m.state.ApplyLogin(msg.Err)
		m.debug.Record(debug.KindAuth, "login", msg.Err)
		cmd := m.form.Reset()
		if m.state.Authenticated {
			m.form.Blur()
			cmd = nil
		}
		m.syncStatus()
		return m, cmd

	case client.LogoutDoneMsg:
		m.state.ApplyLogout(msg.Err)
		m.debug.Record(debug.KindAuth, "logout", msg.Err)
		m.syncStatus()
		if !m.state.Authenticated && !m.form.Focused() {
			return m, m.form.Focus()
		}
		return m, nil

	case client.FetchDoneMsg:
		m.state.ApplyFetch(msg.Target, msg.Body, msg.Err)
		m.results.Done(msg.Target)
		m.debug.Record(debug.KindFetch, "GET "+msg.Target.Label(), msg.Err)
		return m, nil

	case results.FrameMsg:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if m.form.Focused() {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) syncStatus() {
	m.statusBar.Phase = m.state.Phase()
	m.statusBar.Message = m.state.Status
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.showDebug {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.showDebug = false
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	if m.form.Focused() {
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.Login()
		case key.Matches(msg, m.keys.NextField):
			return m, m.form.Next()
		case key.Matches(msg, m.keys.Escape):
			m.form.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		m.SetCredentials(m.form.Username(), m.form.Password())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Edit):
		if !m.state.Authenticated {
			return m, m.form.Focus()
		}

	case key.Matches(msg, m.keys.Logout):
		if m.state.Authenticated {
			return m, m.Logout()
		}

	case key.Matches(msg, m.keys.FetchApp1):
		return m, m.Fetch(client.App1Root)

	case key.Matches(msg, m.keys.FetchVia):
		return m, m.Fetch(client.App2ViaApp1)

	case key.Matches(msg, m.keys.FetchApp2):
		return m, m.Fetch(client.App2Root)

	case key.Matches(msg, m.keys.Debug):
		m.showDebug = true
	}

	return m, nil
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.statusBar.View(),
			m.debug.View(m.width, m.height-3),
		)
	}

	sections := []string{
		m.statusBar.View(),
		m.renderSessionRow(),
		m.results.View(m.state.Result),
		m.renderHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSessionRow shows the login form when anonymous and the logout
// action when authenticated.
func (m Model) renderSessionRow() string {
	if m.state.Authenticated {
		button := theme.StyleBorder.Padding(0, 2).Render("Logout")
		return lipgloss.JoinHorizontal(lipgloss.Center, button, "  ", theme.StyleDimmed.Render("o: logout"))
	}
	return m.form.View()
}

func (m Model) renderHelp() string {
	if m.form.Focused() {
		return theme.StyleDimmed.Render("  enter:login  tab:field  esc:leave form  ctrl+c:quit")
	}
	help := "  1/2/3:fetch  d:request log  q:quit"
	if m.state.Authenticated {
		help = "  o:logout" + help
	} else {
		help = "  i:login" + help
	}
	return theme.StyleDimmed.Render(help)
}
