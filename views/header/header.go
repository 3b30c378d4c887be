package header

import (
	"strings"

	"xdc-dashboard/helpers"
	"xdc-dashboard/styles"

	"github.com/charmbracelet/lipgloss"
)

// NotConnected is the control label while no wallet is connected
const NotConnected = "NOT CONNECTED"

// Action is what activating the header control does
type Action int

const (
	ActionConnect Action = iota
	ActionDisconnect
)

// Button is the clickable region of the header control in screen cells
type Button struct {
	X, Y, Width int
}

// Contains reports whether the cell (x, y) lies on the button
func (b Button) Contains(x, y int) bool {
	return b.Width > 0 && y == b.Y && x >= b.X && x < b.X+b.Width
}

// ActionFor returns the action bound to the control for address
func ActionFor(address string) Action {
	if address == "" {
		return ActionConnect
	}
	return ActionDisconnect
}

// Label returns the control text: NOT CONNECTED or the abbreviated address
func Label(address string) string {
	if address == "" {
		return NotConnected
	}
	return helpers.ShortenAddr(address)
}

// Render renders the header line and separator. The returned button
// position assumes the header sits inside a PanelStyle panel at the top
// left of the screen.
func Render(width int, address, providerName string, connecting bool, spinnerView string) (string, Button) {
	availableWidth := helpers.Max(0, width-8) // Account for panel padding

	title := lipgloss.NewStyle().
		Bold(true).
		Render(helpers.FadeString("xdc dashboard", "#7EE787", "#82CFFD"))

	var providerDisplay string
	switch {
	case connecting:
		providerDisplay = lipgloss.NewStyle().Foreground(styles.CWarn).Render(spinnerView + " Connecting...")
	case address != "" && providerName != "":
		providerDisplay = lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true).Render("● " + providerName)
	}

	button := styles.ButtonStyle.Render(Label(address))

	left := title
	if providerDisplay != "" {
		left += "   " + providerDisplay
	}

	leftWidth := lipgloss.Width(left)
	buttonWidth := lipgloss.Width(button)

	var line string
	btn := Button{Width: buttonWidth}
	if leftWidth+buttonWidth+1 > availableWidth {
		// Not enough space, stack vertically
		line = left + "\n" + button
		btn.X = 3
		btn.Y = 3
	} else {
		spacer := strings.Repeat(" ", availableWidth-leftWidth-buttonWidth)
		line = left + spacer + button
		// panel border + left padding
		btn.X = 3 + leftWidth + len(spacer)
		// panel border + top padding
		btn.Y = 2
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.CBorder).
		Render(strings.Repeat("─", availableWidth))

	return line + "\n" + separator, btn
}
