package terminal

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrClosed is returned by ReadKey after Close
var ErrClosed = errors.New("console closed")

// Console is the controlling terminal: key events in, bytes out
type Console struct {
	in     *os.File
	out    io.Writer
	reader cancelreader.CancelReader
	keys   *Decoder
}

// NewConsole wraps in for cancellable key reads and writes to out unbuffered
func NewConsole(in *os.File, out io.Writer) (*Console, error) {
	reader, err := cancelreader.NewReader(in)
	if err != nil {
		return nil, err
	}
	return &Console{
		in:     in,
		out:    out,
		reader: reader,
		keys:   NewWaitingDecoder(reader, inputReady(in)),
	}, nil
}

// inputReady polls in for readable input
func inputReady(in *os.File) func(time.Duration) bool {
	fd := int32(in.Fd())
	return func(wait time.Duration) bool {
		fds := []unix.PollFd{{Fd: fd, Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(wait.Milliseconds()))
		return err == nil && n > 0
	}
}

// ReadKey blocks for the next key. io.EOF when input ends, ErrClosed after Close.
func (c *Console) ReadKey() (Key, error) {
	k, err := c.keys.ReadKey()
	if errors.Is(err, cancelreader.ErrCanceled) {
		return Key{}, ErrClosed
	}
	return k, err
}

func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// EnableRaw switches the terminal to raw mode. The returned restore func is safe
// to call more than once; only the first call touches the terminal. When input
// is not a terminal nothing changes.
func (c *Console) EnableRaw() (func() error, error) {
	fd := int(c.in.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	var restoreErr error
	return func() error {
		once.Do(func() {
			restoreErr = term.Restore(fd, state)
		})
		return restoreErr
	}, nil
}

// Close unblocks a pending ReadKey
func (c *Console) Close() error {
	c.reader.Cancel()
	return c.reader.Close()
}
