package main

import (
	"errors"
	"fmt"

	"xdc-dashboard/config"
	"xdc-dashboard/helpers"
	"xdc-dashboard/views/content"
	"xdc-dashboard/views/header"
	"xdc-dashboard/views/modal"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- UPDATE --------------------

// Update implements tea.Model interface and handles all state updates
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		// Width accounts for border and padding
		m.logViewport.Width = max(0, msg.Width-6)
		m.updateLogViewport()
		if m.selecting && m.form != nil {
			return m.updateForm(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionChangedMsg:
		return m, m.syncSession()

	case connectDoneMsg:
		m.connecting = false
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Connect failed: `%s`", msg.err.Error()))
			return m, nil
		}
		s := m.sess.Snapshot()
		if s.Connected() {
			m.addLog("success", fmt.Sprintf("Connected `%s` on chain %d", helpers.ShortenAddr(s.Address), s.ChainID))
		}
		return m, nil

	case disconnectDoneMsg:
		if msg.err != nil {
			m.addLog("warning", fmt.Sprintf("Disconnect: `%s`", msg.err.Error()))
		} else {
			m.addLog("info", "Wallet disconnected")
		}
		return m, nil

	case balanceLoadedMsg:
		err := m.content.ApplyBalance(msg.gen, msg.wei, msg.err)
		switch {
		case errors.Is(err, content.ErrStaleBalance):
			m.addLog("debug", fmt.Sprintf("Dropped stale balance (generation %d)", msg.gen))
		case err != nil:
			m.addLog("error", fmt.Sprintf("Failed to load balance for `%s`: %s", helpers.ShortenAddr(m.content.Address), err.Error()))
		default:
			m.addLog("success", fmt.Sprintf("Loaded balance for `%s` - %s", helpers.ShortenAddr(m.content.Address), helpers.FormatBalance(msg.wei, m.symbol)))
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "Copied!"
		return m, clearClipboardMsg()

	case clearCopiedMsg:
		m.copiedMsg = ""
		return m, nil

	case logTickMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.updateLogViewport()
		return m, logTick()

	case tea.MouseMsg:
		if m.selecting {
			return m, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress &&
			m.headerButton.Contains(msg.X, msg.Y) {
			return m, m.activate()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.selecting {
			return m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}

	// huh sends its own internal messages while the form is active
	if m.selecting && m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

// syncSession copies the connection state into the content view, starts
// a balance fetch when needed and waits for the next change
func (m *model) syncSession() tea.Cmd {
	s := m.sess.Snapshot()
	m.symbol = m.symbolFor(s)
	if !s.Connected() {
		m.showQR = false
	}

	cmds := []tea.Cmd{waitForChange(m.sess)}
	if fetch, gen := m.content.Sync(s); fetch {
		m.addLog("debug", fmt.Sprintf("Loading balance for `%s`", helpers.ShortenAddr(s.Address)))
		cmds = append(cmds, fetchBalance(gen, s.Provider, s.Address))
	}
	return tea.Batch(cmds...)
}

// activate runs the header control: connect when disconnected, disconnect otherwise
func (m *model) activate() tea.Cmd {
	if m.connecting {
		return nil
	}

	switch header.ActionFor(m.sess.Snapshot().Address) {
	case header.ActionDisconnect:
		m.addLog("info", "Disconnecting wallet")
		return disconnectWallet(m.sess)

	default:
		if p, ok := m.conn.Cached(); ok {
			m.connecting = true
			m.addLog("info", fmt.Sprintf("Connecting to cached provider `%s`", p.Name))
			return connectWallet(m.sess)
		}
		m.openModal()
		return nil
	}
}

// openModal shows the provider selection form
func (m *model) openModal() {
	providers := m.conn.Providers()
	m.choice = ""
	if len(providers) > 0 {
		m.choice = providers[0].Name
	}
	m.form = nil
	if len(providers) > 0 {
		m.form = modal.CreateForm(providers, &m.choice)
		if m.w > 0 {
			// the form missed the initial size message
			form, _ := m.form.Update(tea.WindowSizeMsg{Width: m.w, Height: m.h})
			if f, ok := form.(*huh.Form); ok {
				m.form = f
			}
		}
	}
	m.selecting = true
}

// closeModal hides the provider selection form
func (m *model) closeModal() {
	m.selecting = false
	m.form = nil
}

// updateForm routes msg to the selection form and handles completion
func (m *model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		// no providers configured, only the hint is shown
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "q") {
			return m.cancelModal()
		}
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return m.cancelModal()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.closeModal()
		if err := m.conn.Choose(m.choice); err != nil {
			m.addLog("error", err.Error())
			return m, nil
		}
		m.connecting = true
		m.addLog("info", fmt.Sprintf("Connecting to `%s`", m.choice))
		return m, connectWallet(m.sess)

	case huh.StateAborted:
		return m.cancelModal()
	}
	return m, cmd
}

// cancelModal dismisses the modal. Dismissing is a cancel, not an error.
func (m *model) cancelModal() (tea.Model, tea.Cmd) {
	m.closeModal()
	m.conn.Cancel()
	m.addLog("debug", "Provider selection cancelled")
	return m, nil
}

// handleKey handles keys on the dashboard
func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit

	case "enter", " ":
		return m.activate()

	case "c":
		if m.content.Address != "" {
			return copyToClipboard(m.content.Address)
		}

	case "r":
		if m.content.Address != "" {
			m.showQR = !m.showQR
		}

	case "esc":
		m.showQR = false

	case "f":
		// a pending sessionChangedMsg resyncs the content view
		if !m.sess.Snapshot().Connected() {
			return nil
		}
		if fetch, gen := m.content.Refresh(); fetch {
			m.addLog("info", fmt.Sprintf("Refreshing balance for `%s`", helpers.ShortenAddr(m.content.Address)))
			return fetchBalance(gen, m.content.Provider(), m.content.Address)
		}

	case "l", "L":
		// Toggle logger
		m.logEnabled = !m.logEnabled
		enabled := m.logEnabled
		if err := config.Update(m.configPath, func(c *config.Config) { c.Logger = enabled }); err != nil {
			m.logger.Warn("save config", "err", err)
		}
		if m.logEnabled {
			if m.w > 0 {
				m.logViewport.Width = m.w - 6
			}
			m.addLog("info", "Logger enabled")
			return logTick()
		}
		// Clear logs when disabling
		m.logBuffer.Reset()

	case "pgup", "pgdown":
		// Allow scrolling in log viewport when enabled
		if m.logEnabled {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return cmd
		}
	}
	return nil
}
