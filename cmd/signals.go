/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/tui/styles"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals <port>",
	Short: "Display current modem signal states",
	Long: `Display the current state of all modem control signals.

Examples:
  serialterm signals /dev/ttyUSB0

Signal meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		port, err := serial.Open(args[0])
		if err != nil {
			exitWithError(err)
		}
		defer port.Close()

		signals, err := port.GetModemSignals()
		if err != nil {
			port.Close()
			exitWithError(fmt.Errorf("reading modem signals: %w", err))
		}
		printSignals(os.Stdout, args[0], signals)
	},
}

// lineCmd builds the rts and dtr commands, which differ only in the line they drive
func lineCmd(name, long string, set func(serial.Port, bool) error) *cobra.Command {
	lower := strings.ToLower(name)
	return &cobra.Command{
		Use:   lower + " <port> <state>",
		Short: fmt.Sprintf("Set the %s (%s) line", name, long),
		Long: fmt.Sprintf(`Manually set the %s (%s) output line.

Examples:
  serialterm %s /dev/ttyUSB0 high
  serialterm %s /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`, name, long, lower, lower),
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			state, err := parseSignalState(args[1])
			if err != nil {
				exitWithError(err)
			}

			port, err := serial.Open(args[0])
			if err != nil {
				exitWithError(err)
			}
			defer port.Close()

			if err := set(port, state); err != nil {
				port.Close()
				exitWithError(fmt.Errorf("setting %s: %w", name, err))
			}
			fmt.Printf("%s set to %s on %s\n", name, formatSignalState(state), args[0])
		},
	}
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
	}
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func printSignals(w io.Writer, portPath string, signals serial.ModemSignals) {
	rows := []struct {
		label string
		state bool
	}{
		{"CTS (Clear To Send):      ", signals.CTS},
		{"DSR (Data Set Ready):     ", signals.DSR},
		{"RI  (Ring Indicator):     ", signals.RI},
		{"DCD (Data Carrier Detect):", signals.DCD},
		{"RTS (Request To Send):    ", signals.RTS},
		{"DTR (Data Terminal Ready):", signals.DTR},
	}

	fmt.Fprintf(w, "Modem Signals for %s:\n\n", portPath)
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %s\n", r.label, styles.Signal(formatSignalState(r.state), r.state))
	}
}

func init() {
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(lineCmd("RTS", "Request To Send", serial.Port.SetRTS))
	rootCmd.AddCommand(lineCmd("DTR", "Data Terminal Ready", serial.Port.SetDTR))
}
