// Package theme provides the Lip Gloss color palette and reusable styles
// for the console. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Service colors.
var (
	ColorAuth = lipgloss.Color("#a855f7")
	ColorApp1 = lipgloss.Color("#3b82f6")
	ColorApp2 = lipgloss.Color("#06b6d4")
)

// Session colors.
var (
	ColorAuthenticated = lipgloss.Color("#16a34a")
	ColorAnonymous     = lipgloss.Color("#6b7280")
	ColorPending       = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorFocus   = lipgloss.Color("#7c3aed")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorInfo    = lipgloss.Color("#2563eb")
)

// ServiceColor returns the color for a service name ("auth", "app1", "app2").
func ServiceColor(service string) lipgloss.Color {
	switch service {
	case "auth":
		return ColorAuth
	case "app1":
		return ColorApp1
	case "app2":
		return ColorApp2
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleFocusedBorder = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(ColorFocus)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorHealthy)
)
