/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serialterm/internal/logger"
)

var (
	cfgFile string
	log     = logger.New("serialterm")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialterm",
	Short: "Interactive serial terminal",
	Long: `serialterm connects your terminal to a serial device.

Keystrokes go to the device as they are typed and everything the device sends
is printed as it arrives. Press the command prefix (ctrl+a by default) followed
by a command key to change the baud rate, filter control bytes as hex or quit
without closing the terminal.

Settings are read from $HOME/.config/serialterm/config.yaml, SERIALTERM_*
environment variables and flags, flags taking precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	err := rootCmd.Execute()
	log.Flush()
	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	log.Flush()
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/serialterm/config.yaml)")
	log.AddLevelFlag(rootCmd.PersistentFlags())
}
