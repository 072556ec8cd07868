// Relayctl controls FTDI FT245R-based USB relay boards.
//
// It drives the FT245R in bitbang mode over libusb: each of the chip's
// eight data pins switches one relay, and the whole board state is a single
// byte. Relays can be addressed by bit index (0-7) or by human-readable
// aliases stored in a per-board JSON configuration.
//
// Usage:
//
//	relayctl [command] [flags]
//
// Common commands:
//
//	relayctl status            show every relay with its alias and state
//	relayctl get pump          read one relay
//	relayctl set pump on       switch one relay
//	relayctl toggle pump -s 2  invert, hold 2 seconds, restore
//	relayctl panel             interactive dashboard
//
// See 'relayctl --help' for the full list.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/relayctl/internal/logging"
	"github.com/muurk/relayctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", zap.Error(err))
		logging.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Sync()
}

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "FT245R USB Relay Board Control",
	Long: `A command-line utility for FTDI FT245R-based USB relay boards.

Reads and switches the board's eight relay channels over USB bitbang mode.
Relays are addressed by bit index (0-7) or by aliases configured per board
serial number with the 'config' command.

Exactly one board may be attached; the tool refuses to guess when several
are present.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the alias configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log verbosity (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relayctl %s\n", version.Full())
	},
}
