package main

import (
	"fmt"
	"os"
	"path/filepath"

	"xdc-dashboard/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// -------------------- MAIN --------------------

const (
	configFile = ".xdc-dashboard.json"
	envRPCURL  = "ETH_RPC_URL"
	envName    = "Custom RPC"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command that launches the dashboard
func newRootCmd() *cobra.Command {
	var (
		configPath string
		rpcURL     string
		closeNoop  bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "xdc-dashboard",
		Short: "Terminal dashboard for an XDC wallet connection",
		Long: `xdc-dashboard connects to an XDC (or other EVM) JSON-RPC provider and
shows the connected address, chain id and native balance.

Example:
  xdc-dashboard
  xdc-dashboard --rpc http://127.0.0.1:8545
  ETH_RPC_URL=https://rpc.apothem.network xdc-dashboard --no-cache`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if configPath == "" {
				homeDir, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("locate home directory: %w", err)
				}
				configPath = filepath.Join(homeDir, configFile)
			}

			cfg := config.LoadOrCreate(configPath)
			if rpcURL == "" {
				rpcURL = os.Getenv(envRPCURL)
			}
			cfg = cfg.WithEnvProvider(envName, rpcURL)
			if noCache {
				cfg.CacheProvider = false
			}
			if closeNoop {
				cfg.CloseNoop = true
			}

			p := tea.NewProgram(newModel(cfg, configPath), tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/"+configFile+")")
	cmd.Flags().StringVar(&rpcURL, "rpc", "", "add an RPC endpoint to the provider list (overrides $"+envRPCURL+")")
	cmd.Flags().BoolVar(&closeNoop, "close-noop", false, "keep the connection state when the provider closes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not reconnect to or remember the last provider")
	return cmd
}
