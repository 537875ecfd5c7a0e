/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/tui/colors"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		if !validFilter(filterType) {
			exitWithError(fmt.Errorf("unknown filter %q (valid: usb, standard, arm, all)", filterType))
		}

		ports, err := serial.ListPorts()
		if err != nil {
			exitWithError(fmt.Errorf("listing ports: %w", err))
		}

		infos := filterPorts(portInfos(ports), filterType)
		if len(infos) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(os.Stdout, infos)
		} else {
			renderSimple(os.Stdout, infos)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func portInfos(ports []string) []*serial.PortInfo {
	infos := make([]*serial.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			log.V(1).Info("Skipping port", "port", port, "reason", err.Error())
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

func validFilter(filterType string) bool {
	switch strings.ToLower(filterType) {
	case "", "all", "usb", "standard", "arm":
		return true
	}
	return false
}

// filterPorts keeps the ports of the requested family
func filterPorts(infos []*serial.PortInfo, filterType string) []*serial.PortInfo {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return infos
	}

	var filtered []*serial.PortInfo
	for _, info := range infos {
		if portFamily(info.Name) == filterType {
			filtered = append(filtered, info)
		}
	}
	return filtered
}

func portFamily(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"), strings.HasPrefix(name, "ttyACM"):
		return "usb"
	case strings.HasPrefix(name, "ttyAMA"):
		return "arm"
	case strings.HasPrefix(name, "ttyS") && !strings.HasPrefix(name, "ttySAC"):
		return "standard"
	default:
		return "other"
	}
}

// renderTable renders the port list as a bordered table
func renderTable(w io.Writer, infos []*serial.PortInfo) {
	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(infos))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(colors.Text).Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colors.Surface1)).
		Headers("Port", "Description", "VID:PID", "Serial", "Product").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, info := range infos {
		usb := ""
		if info.IsUSB() {
			usb = info.VendorID + ":" + info.ProductID
		}
		t.Row(info.Path, info.Description, usb, info.SerialNumber, info.Product)
	}

	fmt.Fprintln(w, t.Render())
}

// renderSimple prints one port path per line
func renderSimple(w io.Writer, infos []*serial.PortInfo) {
	for _, info := range infos {
		fmt.Fprintln(w, info.Path)
	}
}
