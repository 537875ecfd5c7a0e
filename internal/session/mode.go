package session

// Mode decides how the next key from the keyboard is interpreted
type Mode int

const (
	// ModeIo forwards keys to the device
	ModeIo Mode = iota
	// ModeCommand takes exactly one command key, then returns to ModeIo
	ModeCommand
	// ModeHexEntry collects hex digits for a new threshold until enter or esc
	ModeHexEntry
)

func (m Mode) String() string {
	switch m {
	case ModeIo:
		return "io"
	case ModeCommand:
		return "command"
	case ModeHexEntry:
		return "hex-entry"
	default:
		return "unknown"
	}
}
