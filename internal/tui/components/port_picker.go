package components

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/tui/colors"
	"github.com/allbin/go-serialterm/internal/tui/keys"
	"github.com/allbin/go-serialterm/internal/tui/styles"
)

// ErrNoPortSelected is returned when the picker is left without choosing a port
var ErrNoPortSelected = errors.New("no port selected")

// PortPicker lists discovered ports in a table and returns the chosen path
type PortPicker struct {
	table    table.Model
	ports    []*serial.PortInfo
	keys     keys.PickerKeys
	help     help.Model
	selected string
}

func NewPortPicker(ports []*serial.PortInfo) *PortPicker {
	columns := []table.Column{
		{Title: "Port", Width: 16},
		{Title: "Description", Width: 22},
		{Title: "VID:PID", Width: 10},
		{Title: "Serial", Width: 14},
		{Title: "Product", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(portRows(ports)),
		table.WithFocused(true),
		table.WithHeight(min(len(ports), 10)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	s.Selected = s.Selected.
		Foreground(colors.Text).
		Background(colors.Surface1).
		Bold(false)
	t.SetStyles(s)

	return &PortPicker{
		table: t,
		ports: ports,
		keys:  keys.NewPickerKeys(),
		help:  help.New(),
	}
}

func portRows(ports []*serial.PortInfo) []table.Row {
	rows := make([]table.Row, 0, len(ports))
	for _, p := range ports {
		usb := ""
		if p.IsUSB() {
			usb = fmt.Sprintf("%s:%s", p.VendorID, p.ProductID)
		}
		rows = append(rows, table.Row{p.Path, p.Description, usb, p.SerialNumber, p.Product})
	}
	return rows
}

func (p *PortPicker) Init() tea.Cmd {
	return nil
}

func (p *PortPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return p, tea.Quit
		case key.Matches(msg, p.keys.Select):
			if cursor := p.table.Cursor(); cursor >= 0 && cursor < len(p.ports) {
				p.selected = p.ports[cursor].Path
			}
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		p.table.SetWidth(msg.Width)
		p.help.Width = msg.Width
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p *PortPicker) View() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Select a serial port"))
	b.WriteString("\n\n")
	b.WriteString(p.table.View())
	b.WriteString("\n\n")
	b.WriteString(p.help.View(p.keys))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen port path once the picker has finished
func (p *PortPicker) Selected() (string, bool) {
	return p.selected, p.selected != ""
}

// PickPort runs the picker full screen and returns the chosen path
func PickPort(ports []*serial.PortInfo, opts ...tea.ProgramOption) (string, error) {
	if len(ports) == 0 {
		return "", ErrNoPortSelected
	}

	picker := NewPortPicker(ports)
	if _, err := tea.NewProgram(picker, opts...).Run(); err != nil {
		return "", fmt.Errorf("port picker: %w", err)
	}

	path, ok := picker.Selected()
	if !ok {
		return "", ErrNoPortSelected
	}
	return path, nil
}
