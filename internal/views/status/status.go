package status

import (
	"strings"

	"github.com/authdemo/console/internal/client"
	"github.com/authdemo/console/internal/session"
	"github.com/authdemo/console/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	Phase     session.Phase
	Message   string
	Endpoints client.Endpoints
	Width     int
}

// New creates a status bar model.
func New(endpoints client.Endpoints) Model {
	return Model{Endpoints: endpoints}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var phaseStr string
	if m.Phase == session.Authenticated {
		phaseStr = lipgloss.NewStyle().Foreground(theme.ColorAuthenticated).Render("● authenticated")
	} else {
		phaseStr = lipgloss.NewStyle().Foreground(theme.ColorAnonymous).Render("○ anonymous")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	endpoints := []string{
		endpoint("auth", m.Endpoints.Auth),
		endpoint("app1", m.Endpoints.App1),
		endpoint("app2", m.Endpoints.App2),
	}
	content := phaseStr + sep + strings.Join(endpoints, "  ")

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, bar, m.messageLine())
}

func (m Model) messageLine() string {
	switch m.Message {
	case "":
		return ""
	case session.MsgLoginOK, session.MsgLogoutOK:
		return " " + theme.StyleSuccess.Render(m.Message)
	default:
		return " " + theme.StyleError.Render(m.Message)
	}
}

func endpoint(name, url string) string {
	label := lipgloss.NewStyle().Foreground(theme.ServiceColor(name)).Render(name)
	if url == "" {
		url = "(unset)"
	}
	return label + " " + theme.StyleDimmed.Render(url)
}
