package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/terminal"
	"github.com/allbin/go-serialterm/internal/tui/styles"
)

// errQuit ends the Run loop without an error
var errQuit = errors.New("quit")

// handle interprets one key according to the current mode
func (s *Session) handle(k terminal.Key) error {
	switch s.mode {
	case ModeCommand:
		s.mode = ModeIo
		return s.command(k)
	case ModeHexEntry:
		s.hexEntry(k)
		return nil
	}

	if key.Matches(k, s.keys.Prefix) {
		s.mode = ModeCommand
		s.log.V(1).Info("Command mode")
		return nil
	}
	return s.forward(k)
}

// forward sends a key typed in io mode to the device
func (s *Session) forward(k terminal.Key) error {
	data := k.Bytes()
	if k.Type == terminal.KeyEnter && !k.Alt {
		data = s.newline
	}
	if len(data) == 0 {
		s.log.V(1).Info("Ignoring key without byte form", "key", k.String())
		return nil
	}
	return s.writeDevice(data)
}

// command runs the command bound to k. The mode is already back to io.
func (s *Session) command(k terminal.Key) error {
	switch {
	case key.Matches(k, s.keys.Prefix):
		return s.forward(k)
	case key.Matches(k, s.keys.Quit):
		s.status(styles.StatusCommand, "Quit")
		return errQuit
	case key.Matches(k, s.keys.BaudUp):
		return s.applyBaudRate(s.ladder.Increase())
	case key.Matches(k, s.keys.BaudDown):
		return s.applyBaudRate(s.ladder.Decrease())
	case key.Matches(k, s.keys.Help):
		s.showHelp()
	case key.Matches(k, s.keys.HexThreshold):
		s.mode = ModeHexEntry
		s.pending = s.pending[:0]
		s.display([]byte("\r\n" + styles.PromptStyle.Render("Hex threshold: 0x")))
	case key.Matches(k, s.keys.ToggleDTR):
		s.toggleLine("DTR")
	case key.Matches(k, s.keys.ToggleRTS):
		s.toggleLine("RTS")
	case key.Matches(k, s.keys.Status):
		s.showSettings()
	default:
		s.status(styles.StatusError, "Unknown command %s (%s %s for help)",
			k, s.keys.Prefix.Help().Key, s.keys.Help.Help().Key)
	}
	return nil
}

// applyBaudRate pushes a ladder step to the device. Failing leaves the line in
// an unknown state, so the error ends the session.
func (s *Session) applyBaudRate(rate int) error {
	if err := s.dev.SetBaudRate(rate); err != nil {
		return fmt.Errorf("failed to set baud rate %d: %w", rate, err)
	}
	s.log.V(1).Info("Baud rate changed", "baud", rate)
	s.status(styles.StatusCommand, "Baud rate: %d", rate)
	return nil
}

// hexEntry edits the pending threshold digits
func (s *Session) hexEntry(k terminal.Key) {
	switch {
	case k.Type == terminal.KeyEnter:
		s.commitHex()
	case k.Type == terminal.KeyEsc:
		s.mode = ModeIo
		s.pending = s.pending[:0]
		s.status(styles.StatusCommand, "Hex threshold unchanged: 0x%02X", s.threshold)
	case k.Type == terminal.KeyBackspace:
		if len(s.pending) > 0 {
			s.pending = s.pending[:len(s.pending)-1]
			s.display([]byte("\b \b"))
		}
	case k.Printable():
		echo := k.Bytes()
		s.pending = append(s.pending, echo...)
		s.display([]byte(styles.PromptStyle.Render(string(echo))))
	}
}

// commitHex parses the pending digits as the new threshold and returns to io mode.
// Values above 0xFF clamp; anything unparsable keeps the old threshold.
func (s *Session) commitHex() {
	text := strings.TrimPrefix(strings.ToLower(string(s.pending)), "0x")
	s.mode = ModeIo
	s.pending = s.pending[:0]

	value, err := strconv.ParseUint(text, 16, 8)
	switch {
	case errors.Is(err, strconv.ErrRange):
		value = 0xff
	case err != nil:
		s.status(styles.StatusError, "Invalid hex value %q, threshold stays 0x%02X", text, s.threshold)
		return
	}

	s.threshold = byte(value)
	s.status(styles.StatusCommand, "Hex threshold: 0x%02X", s.threshold)
}

func (s *Session) showHelp() {
	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = styles.ValueStyle
	h.Styles.FullDesc = styles.HelpStyle

	rates := make([]string, 0, len(ladderRates))
	for _, rate := range Rates() {
		rates = append(rates, strconv.Itoa(rate))
	}

	s.status(styles.StatusInfo, "Commands follow %s:", s.keys.Prefix.Help().Key)
	s.display([]byte(rawLines(h.View(s.keys)) + "\r\n"))
	s.display([]byte(styles.LabelStyle.Render("baud rates ") +
		styles.ValueStyle.Render(strings.Join(rates, " ")) + "\r\n"))
}

func (s *Session) toggleLine(name string) {
	mc, ok := s.dev.(ModemControl)
	if !ok {
		s.status(styles.StatusError, "%s control not supported by this device", name)
		return
	}

	signals, err := mc.GetModemSignals()
	if err != nil {
		s.log.Error(err, "Reading modem signals failed")
		s.status(styles.StatusError, "Cannot read modem signals: %v", err)
		return
	}

	state := !signals.DTR
	set := mc.SetDTR
	if name == "RTS" {
		state = !signals.RTS
		set = mc.SetRTS
	}
	if err := set(state); err != nil {
		s.log.Error(err, "Setting modem line failed", "line", name, "state", state)
		s.status(styles.StatusError, "Cannot set %s: %v", name, err)
		return
	}
	s.status(styles.StatusCommand, "%s %s", name, onOff(state))
}

func (s *Session) showSettings() {
	parts := []string{
		styles.LabelStyle.Render("baud ") + styles.ValueStyle.Render(strconv.Itoa(s.currentBaudRate())),
	}
	if c, ok := s.dev.(Configured); ok {
		cfg := c.Config()
		parts = append(parts,
			styles.LabelStyle.Render("frame ")+styles.ValueStyle.Render(fmt.Sprintf("%d%s%d", cfg.DataBits, cfg.Parity, cfg.StopBits)),
			styles.LabelStyle.Render("flow ")+styles.ValueStyle.Render(cfg.FlowControl.String()),
		)
	}
	parts = append(parts,
		styles.LabelStyle.Render("hex threshold ")+styles.ValueStyle.Render(fmt.Sprintf("0x%02X", s.threshold)))

	if mc, ok := s.dev.(ModemControl); ok {
		if signals, err := mc.GetModemSignals(); err == nil {
			parts = append(parts, formatSignals(signals))
		} else {
			s.log.Error(err, "Reading modem signals failed")
		}
	}

	s.status(styles.StatusInfo, "%s", strings.Join(parts, "  "))
}

func formatSignals(sig serial.ModemSignals) string {
	return strings.Join([]string{
		styles.Signal("DTR", sig.DTR),
		styles.Signal("RTS", sig.RTS),
		styles.Signal("CTS", sig.CTS),
		styles.Signal("DSR", sig.DSR),
		styles.Signal("DCD", sig.DCD),
		styles.Signal("RI", sig.RI),
	}, " ")
}

func onOff(state bool) string {
	if state {
		return "on"
	}
	return "off"
}
