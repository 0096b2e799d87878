// Package results renders the three fetch panels and animates a pulse bar
// on every panel whose request is still in flight.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/authdemo/console/internal/client"
	"github.com/authdemo/console/internal/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	fps        = 30
	pulseWidth = 24
	minWidth   = 40
)

// FrameMsg advances the pending animation by one frame.
type FrameMsg struct{}

type pulse struct {
	pos, vel, target float64
}

// Model holds per-panel presentation state. Result text itself lives in
// session.State; the caller passes a lookup into View.
type Model struct {
	Width  int
	Pretty bool

	style     string
	renderers *rendererCache
	pending   [3]int
	pulses    [3]pulse
	spring    harmonica.Spring
	animating bool
}

// New creates the panel model. style names a glamour standard style used
// when Pretty is set ("dark", "light", "notty", ...).
func New(pretty bool, style string) Model {
	if style == "" {
		style = "dark"
	}
	return Model{
		Pretty:    pretty,
		style:     style,
		renderers: &rendererCache{},
		spring:    harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.4),
	}
}

// Start marks a request for t as in flight and, if no animation is running,
// returns the command that starts one.
func (m *Model) Start(t client.Target) tea.Cmd {
	if !valid(t) {
		return nil
	}
	m.pending[t]++
	if m.animating {
		return nil
	}
	m.animating = true
	return tick()
}

// Done marks one request for t as finished.
func (m *Model) Done(t client.Target) {
	if valid(t) && m.pending[t] > 0 {
		m.pending[t]--
	}
}

// Pending reports how many requests for t are still outstanding.
func (m Model) Pending(t client.Target) int {
	if !valid(t) {
		return 0
	}
	return m.pending[t]
}

// Update steps the springs of pending panels.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(FrameMsg); !ok {
		return m, nil
	}
	active := false
	for i := range m.pulses {
		if m.pending[i] == 0 {
			m.pulses[i] = pulse{}
			continue
		}
		active = true
		p := &m.pulses[i]
		if p.target == 0 && p.pos < 0.02 {
			p.target = 1
		} else if p.target == 1 && p.pos > 0.98 {
			p.target = 0
		}
		p.pos, p.vel = m.spring.Update(p.pos, p.vel, p.target)
	}
	if !active {
		m.animating = false
		return m, nil
	}
	return m, tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// View renders one panel per target using result to look up slot text.
func (m Model) View(result func(client.Target) string) string {
	width := m.Width
	if width < minWidth {
		width = minWidth
	}

	panels := make([]string, 0, len(client.Targets))
	for i, t := range client.Targets {
		panels = append(panels, m.renderPanel(i+1, t, result(t), width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m Model) renderPanel(n int, t client.Target, text string, width int) string {
	color := theme.ServiceColor(string(t.Service()))
	title := lipgloss.NewStyle().Bold(true).Foreground(color).
		Render(fmt.Sprintf("[%d] Fetch %s", n, t.Label()))

	header := title
	if m.pending[t] > 0 {
		header += "  " + m.renderPulse(t)
	}

	body := m.renderBody(t, text, width-4)
	return theme.StyleBorder.
		Width(width-2).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}

func (m Model) renderPulse(t client.Target) string {
	pos := int(m.pulses[t].pos*float64(pulseWidth-1) + 0.5)
	if pos < 0 {
		pos = 0
	}
	if pos > pulseWidth-1 {
		pos = pulseWidth - 1
	}
	bar := strings.Repeat("─", pos) + "●" + strings.Repeat("─", pulseWidth-1-pos)
	return lipgloss.NewStyle().Foreground(theme.ColorPending).Render(bar)
}

func (m Model) renderBody(t client.Target, text string, width int) string {
	switch {
	case text == "":
		return theme.StyleDimmed.Render("(not fetched)")
	case text == t.ErrorText():
		return theme.StyleError.Render(text)
	case m.Pretty:
		if out, ok := m.renderPretty(text, width); ok {
			return out
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// renderPretty shows a JSON result as a highlighted, indented code block.
func (m Model) renderPretty(text string, width int) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
		return "", false
	}
	r, err := m.renderer(width)
	if err != nil {
		return "", false
	}
	out, err := r.Render("```json\n" + buf.String() + "\n```\n")
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}

// rendererCache holds the glamour renderer for the last width seen. It is
// shared by copies of the Model so View can fill it.
type rendererCache struct {
	width int
	r     *glamour.TermRenderer
}

func (m Model) renderer(width int) (*glamour.TermRenderer, error) {
	if m.renderers != nil && m.renderers.r != nil && m.renderers.width == width {
		return m.renderers.r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	if m.renderers != nil {
		m.renderers.width, m.renderers.r = width, r
	}
	return r, nil
}

func valid(t client.Target) bool {
	return t >= 0 && int(t) < len(client.Targets)
}
