package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/muurk/relayctl/internal/config"
	"github.com/muurk/relayctl/internal/panel"
	"github.com/muurk/relayctl/internal/usbrelay"
)

var holdSeconds float64

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(panelCmd)
}

// loadRegistry loads the alias configuration from --config or the default
// platform path.
func loadRegistry() (*config.Registry, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
	}
	return config.Load(path)
}

// relayLabel names a relay for output: the bit index, with the alias
// appended when one is configured.
func relayLabel(reg *config.Registry, serial string, bit uint8) string {
	if alias := reg.AliasFor(serial, bit); alias != "" {
		return fmt.Sprintf("%d (%s)", bit, alias)
	}
	return strconv.Itoa(int(bit))
}

// getCmd reads the whole board or a single relay
var getCmd = &cobra.Command{
	Use:   "get [relay]",
	Short: "Read relay state",
	Long: `Read the current relay state from the board.

With no argument, prints the full state byte and every relay. With a relay
argument (bit index 0-7 or a configured alias), prints that relay only.`,
	Example: `  # Read all relays
  relayctl get

  # Read relay 3
  relayctl get 3

  # Read by alias
  relayctl get pump`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	board, err := usbrelay.Open()
	if err != nil {
		return err
	}
	defer board.Close()

	if len(args) == 1 {
		bit, err := reg.ResolvePort(board.Serial(), args[0])
		if err != nil {
			return err
		}
		on, err := board.Get(bit)
		if err != nil {
			return err
		}
		fmt.Printf("relay %s: %s\n", relayLabel(reg, board.Serial(), bit), onOff(on))
		return nil
	}

	state, err := board.ReadState()
	if err != nil {
		return err
	}
	fmt.Printf("state: 0x%02X (%08b)\n", state, state)
	for bit := uint8(0); bit < usbrelay.NumRelays; bit++ {
		fmt.Printf("relay %s: %s\n", relayLabel(reg, board.Serial(), bit), onOff(state&(1<<bit) != 0))
	}
	return nil
}

// setCmd switches a single relay or replaces the whole state byte
var setCmd = &cobra.Command{
	Use:   "set <value> | set <relay> <on|off>",
	Short: "Switch relays",
	Long: `Switch a single relay on or off, or replace the whole state byte.

With one argument, the value is the full replacement state byte (decimal or
0x-prefixed hex). With two arguments, the first names a relay (bit index or
alias) and the second is on/off (1/0 and true/false also work). Other
relays keep their state.`,
	Example: `  # Relay 3 on, by alias
  relayctl set pump on

  # Relay 0 off
  relayctl set 0 off

  # All relays at once: 0b00000101
  relayctl set 0x05

  # Everything off
  relayctl set 0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	board, err := usbrelay.Open()
	if err != nil {
		return err
	}
	defer board.Close()

	if len(args) == 1 {
		value, err := parseStateByte(args[0])
		if err != nil {
			return err
		}
		if err := board.SetAll(value); err != nil {
			return err
		}
		fmt.Printf("state: 0x%02X (%08b)\n", value, value)
		return nil
	}

	bit, err := reg.ResolvePort(board.Serial(), args[0])
	if err != nil {
		return err
	}
	on, err := parseSwitch(args[1])
	if err != nil {
		return err
	}
	if err := board.Set(bit, on); err != nil {
		return err
	}
	fmt.Printf("relay %s: %s\n", relayLabel(reg, board.Serial(), bit), onOff(on))
	return nil
}

// toggleCmd inverts relays for a moment
var toggleCmd = &cobra.Command{
	Use:   "toggle [relay]",
	Short: "Invert relays, hold, and restore",
	Long: `Invert relay state, hold the inverted state for a number of seconds, and
restore the original state.

With a relay argument only that bit is inverted; with no argument all eight
relays are inverted at once. The hold is a plain blocking delay.`,
	Example: `  # Pulse relay 3 for one second
  relayctl toggle 3

  # Pulse the pump for five seconds
  relayctl toggle pump -s 5

  # Invert the whole board for two seconds
  relayctl toggle -s 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runToggle,
}

func init() {
	toggleCmd.Flags().Float64VarP(&holdSeconds, "seconds", "s", 1, "Seconds to hold the inverted state")
}

func runToggle(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	board, err := usbrelay.Open()
	if err != nil {
		return err
	}
	defer board.Close()

	hold := time.Duration(holdSeconds * float64(time.Second))

	if len(args) == 1 {
		bit, err := reg.ResolvePort(board.Serial(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("toggling relay %s for %s\n", relayLabel(reg, board.Serial(), bit), hold)
		return board.Toggle(bit, hold)
	}

	fmt.Printf("toggling all relays for %s\n", hold)
	return board.ToggleAll(hold)
}

// Styles for the status table
var (
	onStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D")).Bold(true)
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func styledOnOff(on bool) string {
	if on {
		return onStyle.Render("ON")
	}
	return offStyle.Render("OFF")
}

// statusCmd pretty-prints the board state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every relay with its alias and state",
	Long: `Read the board and print a column-aligned table of every relay: bit
index, configured alias (when one is set), and ON/OFF state.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	board, err := usbrelay.Open()
	if err != nil {
		return err
	}
	defer board.Close()

	state, err := board.ReadState()
	if err != nil {
		return err
	}

	serial := board.Serial()
	if serial == "" {
		serial = "(no serial)"
	}
	fmt.Printf("board %s  state 0x%02X\n\n", serial, state)

	// Column width follows the longest alias.
	nameWidth := len("NAME")
	for bit := uint8(0); bit < usbrelay.NumRelays; bit++ {
		if alias := reg.AliasFor(board.Serial(), bit); len(alias) > nameWidth {
			nameWidth = len(alias)
		}
	}

	fmt.Printf("RELAY  %-*s  STATE\n", nameWidth, "NAME")
	for bit := uint8(0); bit < usbrelay.NumRelays; bit++ {
		fmt.Printf("%5d  %-*s  %s\n",
			bit, nameWidth, reg.AliasFor(board.Serial(), bit),
			styledOnOff(state&(1<<bit) != 0))
	}
	return nil
}

// configCmd writes alias configuration
var configCmd = &cobra.Command{
	Use:   "config <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in the alias configuration file and rewrite it.

The key is a dotted path into the per-board JSON tree, starting with the
board serial number. Boards without a serial use the key "default".`,
	Example: `  # Name relay 3 of board A7003000 "pump"
  relayctl config A7003000.aliases.3 pump

  # Name relay 0 of a board without a serial number
  relayctl config default.aliases.0 lamp`,
	Args: cobra.ExactArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if err := reg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := reg.Save(); err != nil {
		return err
	}
	fmt.Printf("%s = %s (saved to %s)\n", args[0], args[1], reg.Path())
	return nil
}

// listCmd enumerates attached boards
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached relay boards",
	Long: `Enumerate FT245R relay boards on the USB bus without claiming any of
them. Useful to find serial numbers for the 'config' command.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	infos, err := usbrelay.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No relay boards found.")
		return nil
	}
	fmt.Printf("Found %d board(s):\n", len(infos))
	for i, info := range infos {
		fmt.Printf("%d. %s\n", i+1, info)
	}
	return nil
}

// panelCmd launches the interactive dashboard
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Launch the interactive relay dashboard",
	Long: `Launch an interactive terminal dashboard showing all eight relays.

Move the cursor with the arrow keys (or j/k), toggle the selected relay
with space or enter, toggle everything with 'a', and quit with 'q'.`,
	Args: cobra.NoArgs,
	RunE: runPanel,
}

func runPanel(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	board, err := usbrelay.Open()
	if err != nil {
		return err
	}
	defer board.Close()

	return panel.Run(board, reg)
}

// parseStateByte parses a full replacement state byte: decimal, or hex with
// a 0x prefix.
func parseStateByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid state byte %q: want 0-255", s)
	}
	return byte(v), nil
}

// parseSwitch parses an on/off argument.
func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q: want on/off", s)
}
