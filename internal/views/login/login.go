// Package login renders the username/password form.
package login

import (
	"github.com/authdemo/console/internal/theme"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const fieldWidth = 24

type field int

const (
	fieldUsername field = iota
	fieldPassword
)

// Model holds the two credential inputs.
type Model struct {
	username textinput.Model
	password textinput.Model
	active   field
	focused  bool
}

// New creates an unfocused form with empty fields.
func New() Model {
	u := textinput.New()
	u.Placeholder = "username"
	u.Prompt = ""
	u.Width = fieldWidth

	p := textinput.New()
	p.Placeholder = "password"
	p.Prompt = ""
	p.Width = fieldWidth
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return Model{username: u, password: p}
}

// Username returns the current username text.
func (m Model) Username() string { return m.username.Value() }

// Password returns the current password text.
func (m Model) Password() string { return m.password.Value() }

// Focused reports whether keystrokes go to the form.
func (m Model) Focused() bool { return m.focused }

// Focus gives keyboard focus to the active field.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.syncFocus()
}

// Blur releases keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.username.Blur()
	m.password.Blur()
}

// Next moves focus to the other field.
func (m *Model) Next() tea.Cmd {
	if m.active == fieldUsername {
		m.active = fieldPassword
	} else {
		m.active = fieldUsername
	}
	return m.syncFocus()
}

// Reset empties both fields and returns focus to the username field.
func (m *Model) Reset() tea.Cmd {
	m.username.Reset()
	m.password.Reset()
	m.active = fieldUsername
	if !m.focused {
		return nil
	}
	return m.syncFocus()
}

func (m *Model) syncFocus() tea.Cmd {
	if !m.focused {
		return nil
	}
	if m.active == fieldUsername {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

// Update forwards a message to the active field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	if m.active == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// View renders both inputs side by side with a login hint.
func (m Model) View() string {
	box := func(in textinput.Model, active bool) string {
		style := theme.StyleBorder
		if m.focused && active {
			style = theme.StyleFocusedBorder
		}
		return style.Padding(0, 1).Render(in.View())
	}

	hint := theme.StyleDimmed.Render("enter: login  tab: next field")
	if !m.focused {
		hint = theme.StyleDimmed.Render("i: edit credentials")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		box(m.username, m.active == fieldUsername),
		" ",
		box(m.password, m.active == fieldPassword),
		"  ",
		hint,
	)
}
