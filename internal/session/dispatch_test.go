package session

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/terminal"
)

func newTestSession(t *testing.T, dev Device, cfg Config) (*Session, *fakeTerminal) {
	t.Helper()
	term := newTerminal()
	s, err := New(cfg, dev, term, testr.New(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, term
}

func feed(t *testing.T, s *Session, keys ...terminal.Key) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, s.handle(k), "handle(%s)", k)
	}
}

func TestOnlyPrefixEntersCommandMode(t *testing.T) {
	s, _ := newTestSession(t, &fakeDevice{}, DefaultConfig())

	for b := 0; b < 0x80; b++ {
		k, _ := decodeTestKey(byte(b))
		if k == prefix {
			continue
		}
		require.NoError(t, s.handle(k))
		assert.Equal(t, ModeIo, s.mode, "key %s", k)
	}

	feed(t, s, prefix)
	assert.Equal(t, ModeCommand, s.mode)
}

// decodeTestKey maps a single byte to the key a raw terminal would report
func decodeTestKey(b byte) (terminal.Key, bool) {
	d := terminal.NewDecoder(byteReader{b})
	k, err := d.ReadKey()
	return k, err == nil
}

type byteReader struct{ b byte }

func (r byteReader) Read(p []byte) (int, error) {
	p[0] = r.b
	return 1, nil
}

func TestCommandsReturnToIo(t *testing.T) {
	commands := []terminal.Key{
		runes("u")[0], runes("d")[0], runes("h")[0], runes("v")[0],
		runes("t")[0], runes("r")[0], runes("?")[0], ctrl('u'), prefix,
	}

	for _, cmd := range commands {
		t.Run(cmd.String(), func(t *testing.T) {
			s, _ := newTestSession(t, &fakeDevice{}, DefaultConfig())
			feed(t, s, prefix, cmd)
			assert.Equal(t, ModeIo, s.mode)
		})
	}
}

func TestHexCommandEntersHexEntry(t *testing.T) {
	s, term := newTestSession(t, &fakeDevice{}, DefaultConfig())
	s.pending = []byte("stale")

	feed(t, s, prefix, runes("x")[0])
	assert.Equal(t, ModeHexEntry, s.mode)
	assert.Empty(t, s.pending)
	assert.Contains(t, term.Output(), "Hex threshold: 0x")
}

func TestQuitCommand(t *testing.T) {
	s, _ := newTestSession(t, &fakeDevice{}, DefaultConfig())
	feed(t, s, prefix)
	assert.ErrorIs(t, s.handle(runes("q")[0]), errQuit)
	assert.Equal(t, ModeIo, s.mode)
}

func TestHexEntry(t *testing.T) {
	tests := []struct {
		name  string
		keys  []terminal.Key
		want  byte
		error bool
	}{
		{"two digits", runes("1F"), 0x1f, false},
		{"lowercase", runes("7f"), 0x7f, false},
		{"single digit", runes("9"), 0x09, false},
		{"0x prefix", runes("0x20"), 0x20, false},
		{"clamped", runes("100"), 0xff, false},
		{"very large clamped", runes("FFFFFFFFFFFFFFFFFFFF"), 0xff, false},
		{"backspace edits", script(runes("12"), one(backspace), runes("F")), 0x1f, false},
		{"empty", nil, 0x05, true},
		{"not hex", runes("zz"), 0x05, true},
		{"control keys ignored", script(runes("2"), one(ctrl('b')), runes("0")), 0x20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.HexThreshold = 0x05
			s, term := newTestSession(t, &fakeDevice{}, cfg)

			feed(t, s, prefix, runes("x")[0])
			feed(t, s, tt.keys...)
			feed(t, s, enter)

			assert.Equal(t, tt.want, s.threshold)
			assert.Equal(t, ModeIo, s.mode)
			assert.Empty(t, s.pending)
			if tt.error {
				assert.Contains(t, term.Output(), "Invalid hex value")
			} else {
				assert.NotContains(t, term.Output(), "Invalid hex value")
			}
		})
	}
}

func TestHexEntryEscapeCancels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HexThreshold = 0x10
	s, term := newTestSession(t, &fakeDevice{}, cfg)

	feed(t, s, prefix, runes("x")[0])
	feed(t, s, runes("3")...)
	feed(t, s, escape)

	assert.Equal(t, byte(0x10), s.threshold)
	assert.Equal(t, ModeIo, s.mode)
	assert.Contains(t, term.Output(), "unchanged: 0x10")
}

func TestHexEntryDoesNotReachDevice(t *testing.T) {
	dev := &fakeDevice{}
	s, _ := newTestSession(t, dev, DefaultConfig())

	feed(t, s, prefix, runes("x")[0])
	feed(t, s, runes("41")...)
	feed(t, s, enter)
	assert.Empty(t, dev.Written())
}

func TestForward(t *testing.T) {
	tests := []struct {
		name    string
		newline []byte
		keys    []terminal.Key
		want    string
	}{
		{"text", nil, runes("hi"), "hi"},
		{"return default cr", nil, script(runes("ok"), one(enter)), "ok\r"},
		{"return crlf", []byte("\r\n"), one(enter), "\r\n"},
		{"control keys", nil, []terminal.Key{ctrl('c'), {Type: terminal.KeyTab}, backspace, escape}, "\x03\t\x7f\x1b"},
		{"double prefix sends it", nil, []terminal.Key{prefix, prefix}, "\x01"},
		{"ctrl form command", nil, script([]terminal.Key{prefix, ctrl('h')}, runes("a")), "a"},
		{"unknown ignored", nil, []terminal.Key{{Type: terminal.KeyUnknown}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{}
			cfg := DefaultConfig()
			if tt.newline != nil {
				cfg.Newline = tt.newline
			}
			s, _ := newTestSession(t, dev, cfg)

			feed(t, s, tt.keys...)
			assert.Equal(t, tt.want, dev.Written())
		})
	}
}

func TestForwardWriteErrors(t *testing.T) {
	dev := &fakeDevice{writeErr: errors.New("short write")}
	s, _ := newTestSession(t, dev, DefaultConfig())
	assert.NoError(t, s.handle(runes("a")[0]))

	dev.writeErr = serial.ErrDeviceGone
	err := s.handle(runes("a")[0])
	assert.ErrorIs(t, err, serial.ErrDeviceGone)
}

func TestForwardShortWrites(t *testing.T) {
	dev := &fakeDevice{maxWrite: 1}
	cfg := DefaultConfig()
	cfg.Newline = []byte("\r\n")
	s, _ := newTestSession(t, dev, cfg)

	feed(t, s, enter, runes("é")[0])
	assert.Equal(t, "\r\né", dev.Written())
	assert.Equal(t, 4, dev.writeCalls)
}

func TestForwardStalledDevice(t *testing.T) {
	dev := &stalledDevice{fakeDevice: &fakeDevice{}}
	s, _ := newTestSession(t, dev, DefaultConfig())

	assert.NoError(t, s.handle(runes("a")[0]))
	assert.Equal(t, 1, dev.calls)
}

func TestBaudCommands(t *testing.T) {
	dev := &fakeDevice{}
	cfg := DefaultConfig()
	cfg.BaudRate = 9600
	s, term := newTestSession(t, dev, cfg)

	feed(t, s, prefix, runes("d")[0])
	feed(t, s, prefix, runes("u")[0])
	feed(t, s, prefix, runes("u")[0])

	assert.Equal(t, []int{230400, 9600, 19200}, dev.Rates())
	assert.Equal(t, 1, s.ladder.Index())
	assert.Contains(t, term.Output(), "Baud rate: 230400")
}

func TestBaudFailureIsFatal(t *testing.T) {
	setErr := errors.New("ioctl failed")
	s, _ := newTestSession(t, &fakeDevice{setErr: setErr}, DefaultConfig())

	feed(t, s, prefix)
	err := s.handle(runes("u")[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, setErr)
	assert.Contains(t, err.Error(), "failed to set baud rate")
}

func TestUnknownCommand(t *testing.T) {
	dev := &fakeDevice{}
	s, term := newTestSession(t, dev, DefaultConfig())

	feed(t, s, prefix, runes("z")[0])
	assert.Equal(t, ModeIo, s.mode)
	assert.Contains(t, term.Output(), "Unknown command z")
	assert.Empty(t, dev.Written())
}

func TestHelpCommand(t *testing.T) {
	s, term := newTestSession(t, &fakeDevice{}, DefaultConfig())
	feed(t, s, prefix, runes("h")[0])

	out := term.Output()
	assert.Contains(t, out, "Commands follow ctrl+a")
	for _, desc := range []string{"quit", "baud rate up", "baud rate down", "set hex threshold"} {
		assert.Contains(t, out, desc)
	}
	assert.Contains(t, out, "9600 19200 38400 57600 115200 230400")
	assert.NotRegexp(t, `[^\r]\n`, out, "help must use raw-mode line endings")
}

func TestToggleLines(t *testing.T) {
	dev := &modemDevice{fakeDevice: &fakeDevice{}, config: serial.DefaultConfig()}
	s, term := newTestSession(t, dev, DefaultConfig())

	feed(t, s, prefix, runes("t")[0])
	assert.True(t, dev.signals.DTR)
	assert.Contains(t, term.Output(), "DTR on")

	feed(t, s, prefix, runes("t")[0])
	assert.False(t, dev.signals.DTR)

	feed(t, s, prefix, runes("r")[0])
	assert.True(t, dev.signals.RTS)
	assert.Contains(t, term.Output(), "RTS on")
}

func TestToggleUnsupported(t *testing.T) {
	s, term := newTestSession(t, &fakeDevice{}, DefaultConfig())
	feed(t, s, prefix, runes("t")[0])
	assert.Contains(t, term.Output(), "DTR control not supported")
}

func TestShowSettings(t *testing.T) {
	config := serial.DefaultConfig()
	config.Parity = serial.ParityEven
	dev := &modemDevice{fakeDevice: &fakeDevice{}, config: config}
	dev.signals.CTS = true

	cfg := DefaultConfig()
	cfg.HexThreshold = 0x20
	s, term := newTestSession(t, dev, cfg)

	feed(t, s, prefix, runes("v")[0])
	out := term.Output()
	assert.Contains(t, out, "115200")
	assert.Contains(t, out, "8E1")
	assert.Contains(t, out, "flow none")
	assert.Contains(t, out, "0x20")
	assert.Contains(t, out, "CTS")
}

func TestNewRawModeFailure(t *testing.T) {
	term := newTerminal()
	term.rawErr = errors.New("not a tty")

	_, err := New(DefaultConfig(), &fakeDevice{}, term, testr.New(t))
	assert.ErrorIs(t, err, term.rawErr)
}

func TestCustomKeys(t *testing.T) {
	dev := &fakeDevice{}
	cfg := DefaultConfig()
	cfg.Keys = keysWith("ctrl+t", "")
	s, _ := newTestSession(t, dev, cfg)

	feed(t, s, prefix)
	assert.Equal(t, ModeIo, s.mode, "ctrl+a is plain input with a custom prefix")
	assert.Equal(t, "\x01", dev.Written())

	feed(t, s, ctrl('t'))
	assert.Equal(t, ModeCommand, s.mode)
}
