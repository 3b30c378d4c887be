package log

import (
	"fmt"

	"xdc-dashboard/helpers"
	"xdc-dashboard/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// PanelHeight returns the viewport height for a screen of the given height
func PanelHeight(height int) int {
	// header (5 lines), nav (3 lines), title + borders (4 lines)
	reservedHeight := 12
	availableHeight := helpers.Max(3, height-reservedHeight)

	// Limit max height to 1/3 of screen or 12 lines, whichever is smaller
	maxLogHeight := helpers.Min(height/3, 12)
	return helpers.Max(1, helpers.Min(availableHeight, maxLogHeight))
}

// Render renders the log panel
func Render(width, height int, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	vp.Height = PanelHeight(height)

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(vp.Height + 2) // +2 for title and spacing

	// Show scroll position if content is larger than viewport
	scrollInfo := ""
	if vp.TotalLineCount() > vp.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + scrollInfo + "\n\n" + vp.View())
}
