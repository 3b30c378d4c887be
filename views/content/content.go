package content

import (
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"xdc-dashboard/helpers"
	"xdc-dashboard/session"
	"xdc-dashboard/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"
)

// ErrStaleBalance is returned when a balance result belongs to an older fetch
var ErrStaleBalance = errors.New("stale balance result")

// Model holds the display state derived from the connection state
type Model struct {
	Address      string
	ChainIDText  string
	BalanceText  string
	WalletStatus bool
	Loading      bool
	LoadedAt     time.Time

	gen      uint64
	chainID  uint64
	provider session.Provider
}

// Sync recomputes the derived fields from s. When address, chain id or
// provider changed and a balance can be fetched it returns fetch=true and
// the generation the result must be applied with.
func (m *Model) Sync(s session.State) (fetch bool, gen uint64) {
	m.WalletStatus = s.Connected()
	m.ChainIDText = ""
	if s.ChainID != 0 {
		m.ChainIDText = strconv.FormatUint(s.ChainID, 10)
	}

	if s.Address == m.Address && s.ChainID == m.chainID && s.Provider == m.provider {
		return false, m.gen
	}
	m.Address = s.Address
	m.chainID = s.ChainID
	m.provider = s.Provider
	return m.Refresh()
}

// Refresh starts a new balance fetch generation. Any fetch still in flight
// becomes stale. Without provider or address the balance text is cleared.
func (m *Model) Refresh() (fetch bool, gen uint64) {
	m.gen++
	if m.provider == nil || m.Address == "" {
		m.BalanceText = ""
		m.Loading = false
		m.LoadedAt = time.Time{}
		return false, m.gen
	}
	m.Loading = true
	return true, m.gen
}

// Provider returns the provider the balance is fetched from
func (m Model) Provider() session.Provider {
	return m.provider
}

// ApplyBalance commits a fetched balance for generation gen. A failed
// fetch leaves the previous balance text in place.
func (m *Model) ApplyBalance(gen uint64, wei *big.Int, err error) error {
	if gen != m.gen {
		return ErrStaleBalance
	}
	m.Loading = false
	if err != nil {
		return err
	}
	m.BalanceText = helpers.FromWei(wei)
	m.LoadedAt = time.Now()
	return nil
}

// Nav returns the navigation bar for the dashboard
func Nav(width int, connected bool) string {
	action := " connect"
	if connected {
		action = " disconnect"
	}
	keys := []string{styles.Key("Enter") + action}
	if connected {
		keys = append(keys,
			styles.Key("c")+" copy address",
			styles.Key("r")+" QR code",
			styles.Key("f")+" refresh",
		)
	}
	keys = append(keys,
		styles.Key("l")+" logger",
		styles.Key("q")+" quit",
	)
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

func field(label, value string, width int) string {
	return styles.LabelStyle.Render(label) + "\n" + styles.FieldStyle.Width(width).Render(value)
}

// Render renders the content view: address, chain id, balance and the wallet status
func Render(m Model, symbol string, width int, copiedMsg string, spinnerView string) string {
	fieldWidth := helpers.Max(20, helpers.Min(60, width-8))

	balance := m.BalanceText
	if m.Loading {
		balance = spinnerView + " " + balance
	}
	balanceLabel := "My " + symbol + " Balance:"
	if !m.LoadedAt.IsZero() && !m.Loading {
		balanceLabel += "  " + lipgloss.NewStyle().Foreground(styles.CMuted).Faint(true).
			Render("updated "+helpers.LoadedAt(m.LoadedAt, false))
	}

	addressLabel := "My " + symbol + " Address:"
	if copiedMsg != "" {
		addressLabel += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	ballColor := styles.COffline
	statusText := "Wallet Disconnected"
	if m.WalletStatus {
		ballColor = styles.COnline
		statusText = "Wallet Connected"
	}
	status := lipgloss.NewStyle().Foreground(ballColor).Render("●") + " " + statusText

	lines := []string{
		styles.TitleStyle.Render("Wallet"),
		"",
		field(addressLabel, m.Address, fieldWidth),
		field("Connected to:", m.ChainIDText, fieldWidth),
		field(balanceLabel, balance, fieldWidth),
		"",
		status,
	}
	return strings.Join(lines, "\n")
}

// QRCode renders text as a half-block QR code
func QRCode(text string) string {
	var sb strings.Builder
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &sb)
	return sb.String()
}

// RenderQR renders the receive panel for address
func RenderQR(address string) string {
	if address == "" {
		return lipgloss.NewStyle().Foreground(styles.CMuted).Render("Connect a wallet to show its QR code.")
	}
	return styles.TitleStyle.Render("Receive") + "\n\n" +
		QRCode(address) + "\n" +
		lipgloss.NewStyle().Foreground(styles.CMuted).Render(address)
}
