package main

import (
	"xdc-dashboard/views/content"
	"xdc-dashboard/views/header"
	logview "xdc-dashboard/views/log"
	"xdc-dashboard/views/modal"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m *model) View() string {
	s := m.sess.Snapshot()

	// The modal takes the whole screen, so the header control is not clickable
	if m.selecting {
		m.headerButton = header.Button{}
		box := modal.Render(m.form, m.conn.Providers(), m.configPath)
		return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			modal.Place(m.w, max(0, m.h-3), box),
			modal.Nav(max(0, m.w-2)),
		))
	}

	hdr, btn := header.Render(m.w, s.Address, providerName(s), m.connecting, m.spin.View())
	m.headerButton = btn
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(hdr)

	body := content.Render(m.content, m.symbol, m.w, m.copiedMsg, m.spin.View())
	var pageContent string
	if m.showQR {
		// Split 60/40 with the receive QR on the right
		leftWidth := max(0, (m.w*6)/10-2)
		rightWidth := max(0, (m.w*4)/10-2)
		leftPanel := panelStyle.Width(leftWidth).Render(body)
		rightPanel := panelStyle.
			Width(rightWidth + 1).
			Height(max(0, lipgloss.Height(leftPanel)-2)).
			Render(content.RenderQR(m.content.Address))
		pageContent = lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
	} else {
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(body)
	}
	nav := content.Nav(max(0, m.w-2), s.Connected())

	sections := []string{headerPanel, pageContent, nav}
	// Render log panel only if enabled
	if m.logEnabled {
		m.logViewport.Height = logview.PanelHeight(m.h)
		sections = append(sections, logview.Render(m.w, m.h, m.logViewport))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
