package session

import (
	"bytes"
	"io"
	"sync"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/terminal"
	"github.com/allbin/go-serialterm/internal/tui/keys"
)

type readResult struct {
	data []byte
	err  error
}

// fakeDevice replays reads, then times out forever
type fakeDevice struct {
	mu       sync.Mutex
	reads    []readResult
	written  bytes.Buffer
	rates    []int
	setErr   error
	writeErr error
	// maxWrite caps the bytes accepted per Write when positive
	maxWrite   int
	writeCalls int
}

func (d *fakeDevice) Read(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.reads) == 0 {
		return 0, serial.ErrReadTimeout
	}
	r := d.reads[0]
	d.reads = d.reads[1:]
	return copy(buf, r.data), r.err
}

func (d *fakeDevice) Write(data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.writeCalls++
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	if d.maxWrite > 0 && len(data) > d.maxWrite {
		data = data[:d.maxWrite]
	}
	return d.written.Write(data)
}

func (d *fakeDevice) SetBaudRate(rate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.setErr != nil {
		return d.setErr
	}
	d.rates = append(d.rates, rate)
	return nil
}

func (d *fakeDevice) Written() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written.String()
}

func (d *fakeDevice) Rates() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.rates...)
}

// stalledDevice accepts nothing and reports no error
type stalledDevice struct {
	*fakeDevice
	calls int
}

func (d *stalledDevice) Write(data []byte) (int, error) {
	d.calls++
	return 0, nil
}

// modemDevice adds modem lines and a configuration to fakeDevice
type modemDevice struct {
	*fakeDevice
	signals serial.ModemSignals
	config  serial.Config
}

func (d *modemDevice) GetModemSignals() (serial.ModemSignals, error) {
	return d.signals, nil
}

func (d *modemDevice) SetDTR(state bool) error {
	d.signals.DTR = state
	return nil
}

func (d *modemDevice) SetRTS(state bool) error {
	d.signals.RTS = state
	return nil
}

func (d *modemDevice) Config() serial.Config {
	return d.config
}

// fakeTerminal hands out scripted keys. When the script runs out it reports
// io.EOF, or blocks until released if hold is set.
type fakeTerminal struct {
	mu       sync.Mutex
	script   []terminal.Key
	hold     chan struct{}
	out      bytes.Buffer
	raw      int
	restored int
	rawErr   error
}

func newTerminal(script ...terminal.Key) *fakeTerminal {
	return &fakeTerminal{script: script}
}

func (t *fakeTerminal) holdOpen() *fakeTerminal {
	t.hold = make(chan struct{})
	return t
}

func (t *fakeTerminal) release() {
	if t.hold != nil {
		close(t.hold)
	}
}

func (t *fakeTerminal) ReadKey() (terminal.Key, error) {
	t.mu.Lock()
	if len(t.script) > 0 {
		k := t.script[0]
		t.script = t.script[1:]
		t.mu.Unlock()
		return k, nil
	}
	t.mu.Unlock()

	if t.hold != nil {
		<-t.hold
		return terminal.Key{}, terminal.ErrClosed
	}
	return terminal.Key{}, io.EOF
}

func (t *fakeTerminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Write(p)
}

func (t *fakeTerminal) EnableRaw() (func() error, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rawErr != nil {
		return nil, t.rawErr
	}
	t.raw++
	return func() error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.restored++
		return nil
	}, nil
}

func (t *fakeTerminal) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.String()
}

func (t *fakeTerminal) Restored() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restored
}

func runes(s string) []terminal.Key {
	keys := make([]terminal.Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, terminal.Key{Type: terminal.KeyRune, Rune: r})
	}
	return keys
}

func ctrl(r rune) terminal.Key {
	return terminal.Key{Type: terminal.KeyRune, Rune: r, Ctrl: true}
}

var (
	enter     = terminal.Key{Type: terminal.KeyEnter}
	escape    = terminal.Key{Type: terminal.KeyEsc}
	backspace = terminal.Key{Type: terminal.KeyBackspace}
	prefix    = ctrl('a')
)

func script(parts ...[]terminal.Key) []terminal.Key {
	var all []terminal.Key
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

func one(k terminal.Key) []terminal.Key { return []terminal.Key{k} }

func keysWith(prefix, exit string) keys.SessionKeys {
	return keys.NewSessionKeys(prefix, exit)
}
