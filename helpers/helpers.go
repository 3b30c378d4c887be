package helpers

import (
	"errors"
	"fmt"
	"image/color"
	"math/big"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
	"github.com/shopspring/decimal"
)

// ErrInvalidAddress is returned when a string is not a 20-byte hex address
var ErrInvalidAddress = errors.New("invalid address")

// etherExp is the exponent of the native currency's smallest unit (18 decimals)
const etherExp = -18

// ShortenAddr abbreviates an address to its first 6 characters, "..." and its last 4.
// Inputs shorter than 10 characters are returned unchanged.
func ShortenAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// IsValidEthAddress checks if a string is a valid 0x-prefixed address
func IsValidEthAddress(s string) bool {
	return len(s) == 42 && common.IsHexAddress(s)
}

// ToChecksumAddress returns the EIP-55 form of addr
func ToChecksumAddress(addr string) (string, error) {
	if !IsValidEthAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// FromWei converts a raw balance in the smallest unit to a human readable
// decimal string using 18-decimal fixed-point division. Trailing zeros are dropped.
func FromWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, etherExp).String()
}

// FormatBalance formats a raw balance with the currency symbol
func FormatBalance(wei *big.Int, symbol string) string {
	return FromWei(wei) + " " + symbol
}

// LoadedAt formats the loaded timestamp
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	if s == "" {
		return ""
	}
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len(s))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result string
	for i, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result += baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c))
	}
	return result
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
