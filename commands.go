package main

import (
	"context"
	"time"

	"xdc-dashboard/session"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

const (
	connectTimeout = 30 * time.Second
	balanceTimeout = 12 * time.Second
)

// connectWallet runs the connect flow through the session
func connectWallet(sess *session.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return connectDoneMsg{err: sess.Connect(ctx)}
	}
}

// disconnectWallet tears the session down
func disconnectWallet(sess *session.Context) tea.Cmd {
	return func() tea.Msg {
		return disconnectDoneMsg{err: sess.Disconnect()}
	}
}

// waitForChange blocks until the session reports a change
func waitForChange(sess *session.Context) tea.Cmd {
	return func() tea.Msg {
		<-sess.Changes()
		return sessionChangedMsg{}
	}
}

// fetchBalance loads the balance of address for content generation gen
func fetchBalance(gen uint64, p session.Provider, address string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), balanceTimeout)
		defer cancel()
		wei, err := p.Balance(ctx, address)
		return balanceLoadedMsg{gen: gen, wei: wei, err: err}
	}
}

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{}
		}
		return nil
	}
}

// clearClipboardMsg waits 2 seconds then sends a message to clear clipboard feedback
func clearClipboardMsg() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// logTick schedules the next log panel refresh
func logTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return logTickMsg{}
	})
}

// addLog writes a message to the log panel
func (m *model) addLog(logType, message string) {
	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logEnabled {
		return
	}
	m.logViewport.SetContent(m.logBuffer.String())
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}
