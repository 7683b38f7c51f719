package cli

import (
	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/core"
)

var (
	PrimaryColor = lipgloss.Color("#4F46E5")
	SuccessColor = lipgloss.Color("#16A34A")
	ErrorColor   = lipgloss.Color("#DC2626")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle frames assistant answers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

// CategoryStyle colors text with the category's dashboard color.
func CategoryStyle(c core.Category) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Style().Color))
}

// MoneyStyle renders negative amounts in the error color.
func MoneyStyle(m core.Money) lipgloss.Style {
	if m.Cents < 0 {
		return ErrorStyle
	}
	return BoldStyle
}
