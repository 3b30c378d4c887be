package main

import (
	"fmt"

	"xdc-dashboard/config"
	"xdc-dashboard/connector"
	"xdc-dashboard/session"
	"xdc-dashboard/styles"
	"xdc-dashboard/views/content"
	"xdc-dashboard/views/header"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	cfg        config.Config
	configPath string

	// connection state lives in the session, the model only renders it
	sess *session.Context
	conn *connector.Connector

	content    content.Model
	symbol     string
	connecting bool
	spin       spinner.Model

	// provider selection modal; choice is bound to the huh select
	selecting bool
	form      *huh.Form
	choice    string

	// header control position from the last render
	headerButton header.Button

	// receive QR panel
	showQR bool

	// clipboard feedback
	copiedMsg string

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logBuffer
	logViewport viewport.Model
}

// -------------------- INIT --------------------

// newModel creates the model and its session. Connector options let
// callers replace the RPC dialer.
func newModel(cfg config.Config, configPath string, opts ...connector.Option) *model {
	buf := &logBuffer{}
	logger := log.NewWithOptions(buf, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	logger.SetLevel(log.DebugLevel)
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(styles.COffline).SetString("ERROR"),
		},
	})

	persist := func(cached string) error {
		return config.Update(configPath, func(c *config.Config) {
			c.CachedProvider = cached
		})
	}
	connOpts := append([]connector.Option{
		connector.WithPersist(persist),
		connector.WithLogger(logger.WithPrefix("connector")),
	}, opts...)
	conn := connector.New(cfg, connOpts...)

	behavior := session.CloseReset
	if cfg.CloseNoop {
		behavior = session.CloseLegacyNoop
	}
	sess := session.New(conn,
		session.WithCloseBehavior(behavior),
		session.WithLogger(logger.WithPrefix("session")),
	)

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(cAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(cText).
		Background(styles.CPanel)

	m := &model{
		cfg:         cfg,
		configPath:  configPath,
		sess:        sess,
		conn:        conn,
		symbol:      config.Provider{}.CurrencySymbol(),
		spin:        sp,
		logEnabled:  cfg.Logger,
		logger:      logger,
		logBuffer:   buf,
		logViewport: vp,
	}
	logger.Debug("starting", "config", configPath, "providers", len(cfg.Providers), "close", behavior)
	return m
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForChange(m.sess)}
	if m.logEnabled {
		cmds = append(cmds, logTick())
	}
	// reconnect to the provider used last time
	if p, ok := m.conn.Cached(); ok {
		m.connecting = true
		m.addLog("info", fmt.Sprintf("Reconnecting to `%s`", p.Name))
		cmds = append(cmds, connectWallet(m.sess))
	}
	return tea.Batch(cmds...)
}

// symbolFor returns the currency symbol of the connected provider
func (m *model) symbolFor(s session.State) string {
	if s.Provider == nil {
		return config.Provider{}.CurrencySymbol()
	}
	p, _ := m.cfg.Find(s.Provider.Name())
	return p.CurrencySymbol()
}

// providerName returns the name of the connected provider, if any
func providerName(s session.State) string {
	if s.Provider == nil {
		return ""
	}
	return s.Provider.Name()
}
