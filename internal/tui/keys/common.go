package keys

import "github.com/charmbracelet/bubbles/key"

const (
	DefaultPrefix = "ctrl+a"
	DefaultExit   = "ctrl+q"
)

// SessionKeys are the chords of a terminal session. Prefix and Exit are read
// directly from the keyboard; the rest are commands taken after Prefix.
type SessionKeys struct {
	Prefix       key.Binding
	Exit         key.Binding
	Quit         key.Binding
	BaudUp       key.Binding
	BaudDown     key.Binding
	Help         key.Binding
	HexThreshold key.Binding
	ToggleDTR    key.Binding
	ToggleRTS    key.Binding
	Status       key.Binding
}

// NewSessionKeys builds the bindings. An empty exit disables the exit chord.
func NewSessionKeys(prefix, exit string) SessionKeys {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	k := SessionKeys{
		Prefix: key.NewBinding(
			key.WithKeys(prefix),
			key.WithHelp(prefix, "command prefix (twice sends it)"),
		),
		Exit: key.NewBinding(
			key.WithKeys(exit),
			key.WithHelp(exit, "exit"),
		),
		Quit:         command("q", "quit"),
		BaudUp:       command("u", "baud rate up"),
		BaudDown:     command("d", "baud rate down"),
		Help:         command("h", "help"),
		HexThreshold: command("x", "set hex threshold"),
		ToggleDTR:    command("t", "toggle DTR"),
		ToggleRTS:    command("r", "toggle RTS"),
		Status:       command("v", "show settings"),
	}
	if exit == "" {
		k.Exit.SetEnabled(false)
	}
	return k
}

// command binds a letter and its ctrl form, so the prefix key can stay held
func command(letter, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(letter, "ctrl+"+letter),
		key.WithHelp(letter, desc),
	)
}

func (k SessionKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prefix, k.Help, k.Quit}
}

func (k SessionKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prefix, k.Exit},
		{k.Quit, k.Help, k.Status},
		{k.BaudUp, k.BaudDown, k.HexThreshold},
		{k.ToggleDTR, k.ToggleRTS},
	}
}

// PickerKeys drive the port picker
type PickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func NewPickerKeys() PickerKeys {
	return PickerKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "cancel"),
		),
	}
}

func (k PickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k PickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
