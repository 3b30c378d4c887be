package modal

import (
	"strings"

	"xdc-dashboard/config"
	"xdc-dashboard/styles"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// CreateForm creates the provider selection form. The chosen provider
// name is written to selection when the form completes.
func CreateForm(providers []config.Provider, selection *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(providers))
	for _, p := range providers {
		options = append(options, huh.NewOption(p.Name+"  "+p.URL, p.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(options...).
				Title("Connect Wallet").
				Description("Choose a provider").
				Value(selection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Nav returns the navigation bar while the modal is open
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " connect",
		styles.Key("Esc") + " cancel",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the selection modal, or a hint when no provider is configured
func Render(form *huh.Form, providers []config.Provider, configPath string) string {
	if len(providers) == 0 {
		lines := []string{
			styles.TitleStyle.Render("Connect Wallet"),
			"",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("No providers configured."),
			"",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Add one to ") +
				lipgloss.NewStyle().Foreground(styles.CAccent).Render(configPath) +
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" or set ") +
				lipgloss.NewStyle().Foreground(styles.CAccent).Render("ETH_RPC_URL"),
		}
		return strings.Join(lines, "\n")
	}
	if form == nil {
		return ""
	}
	return form.View()
}

// Place centers the modal box over a w×h screen
func Place(w, h int, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Background(styles.CPanel).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}
