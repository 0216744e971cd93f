package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#FF6B35")
	info    = lipgloss.Color("#1E88E5")
	success = lipgloss.Color("#66BB6A")
	warning = lipgloss.Color("#FFB74D")
	failure = lipgloss.Color("#F44336")
	text    = lipgloss.Color("#E0E0E0")
	bright  = lipgloss.Color("#FFFFFF")
	muted   = lipgloss.Color("#90A4AE")
	border  = lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#30363D"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(bright).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Foreground(text).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(bright).
			Bold(true)

	okStyle       = lipgloss.NewStyle().Foreground(success).Bold(true)
	degradedStyle = lipgloss.NewStyle().Foreground(warning).Bold(true)
	downStyle     = lipgloss.NewStyle().Foreground(failure).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(info)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
)

// statusBadge renders a health status in its color.
func statusBadge(status string) string {
	switch status {
	case "ok":
		return okStyle.Render("● OK")
	case "degraded":
		return degradedStyle.Render("● DEGRADED")
	case "down":
		return downStyle.Render("● DOWN")
	default:
		return mutedStyle.Render("○ UNKNOWN")
	}
}
