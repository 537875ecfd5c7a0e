/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/tui/styles"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  serialterm info /dev/ttyUSB0
  serialterm info /dev/ttyACM0

For USB devices, this displays vendor/product IDs, serial numbers, interface
numbers, and other USB-specific metadata extracted from sysfs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := serial.GetPortInfo(args[0])
		if err != nil {
			exitWithError(fmt.Errorf("getting port info: %w", err))
		}
		printPortInfo(os.Stdout, info)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printPortInfo(w io.Writer, info *serial.PortInfo) {
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s %s\n", styles.LabelStyle.Render(fmt.Sprintf("%-13s", label+":")), value)
		}
	}

	fmt.Fprintf(w, "%s\n\n", styles.TitleStyle.Render("Port Information: "+info.Path))
	field("Name", info.Name)
	field("Description", info.Description)

	if !info.IsUSB() {
		return
	}

	fmt.Fprintln(w, "\nUSB Device Information:")
	field("Vendor ID", info.VendorID)
	field("Product ID", info.ProductID)
	field("Serial", info.SerialNumber)
	field("Interface", info.InterfaceNumber)
	field("Bus", info.BusNumber)
	field("Device", info.DeviceNumber)
	field("Manufacturer", info.Manufacturer)
	field("Product", info.Product)
}
