// Package session runs an interactive terminal session against a serial device:
// keys typed on the controlling terminal go to the device, device output is
// rendered to the terminal, and a prefix chord opens a one-key command mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/smallnest/chanx"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/terminal"
	"github.com/allbin/go-serialterm/internal/tui/keys"
	"github.com/allbin/go-serialterm/internal/tui/styles"
)

const (
	DefaultPollInterval = 100 * time.Millisecond

	readBufferSize    = 1024
	queueInitCapacity = 64
)

// Device is the serial port as seen by the session
type Device interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	SetBaudRate(rate int) error
}

// ModemControl is implemented by devices whose DTR and RTS lines can be driven
type ModemControl interface {
	GetModemSignals() (serial.ModemSignals, error)
	SetDTR(state bool) error
	SetRTS(state bool) error
}

// Configured is implemented by devices that can report their line settings
type Configured interface {
	Config() serial.Config
}

// Terminal is the controlling terminal
type Terminal interface {
	// ReadKey blocks until the next key event
	ReadKey() (terminal.Key, error)
	Write(p []byte) (int, error)
	// EnableRaw switches to raw mode and returns the func restoring the previous mode
	EnableRaw() (func() error, error)
}

type Config struct {
	// BaudRate the device was opened with; positions the baud ladder
	BaudRate     int
	HexThreshold byte
	PollInterval time.Duration
	// Newline is sent for the return key
	Newline []byte
	Keys    keys.SessionKeys
}

func DefaultConfig() Config {
	return Config{
		BaudRate:     serial.DefaultConfig().BaudRate,
		PollInterval: DefaultPollInterval,
		Newline:      []byte{'\r'},
		Keys:         keys.NewSessionKeys(keys.DefaultPrefix, keys.DefaultExit),
	}
}

// Session couples one device to one terminal until quit, input end or a fatal device error.
// Mode, threshold, pending hex input and the device are owned by the Run loop;
// the input activity only ever enqueues keys.
type Session struct {
	dev  Device
	term Terminal
	log  logr.Logger

	keys         keys.SessionKeys
	newline      []byte
	pollInterval time.Duration

	ladder    *Ladder
	threshold byte
	mode      Mode
	pending   []byte

	readBuf []byte
	outBuf  []byte

	restore     func() error
	releaseOnce sync.Once
	releaseErr  error
}

// New puts the terminal into raw mode for the lifetime of the session.
// Run and Close both restore it; only the first restore takes effect.
func New(cfg Config, dev Device, term Terminal, log logr.Logger) (*Session, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if len(cfg.Newline) == 0 {
		cfg.Newline = []byte{'\r'}
	}
	if len(cfg.Keys.Prefix.Keys()) == 0 {
		cfg.Keys = keys.NewSessionKeys(keys.DefaultPrefix, keys.DefaultExit)
	}

	restore, err := term.EnableRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw terminal mode: %w", err)
	}

	return &Session{
		dev:          dev,
		term:         term,
		log:          log,
		keys:         cfg.Keys,
		newline:      cfg.Newline,
		pollInterval: cfg.PollInterval,
		ladder:       NewLadder(cfg.BaudRate),
		threshold:    cfg.HexThreshold,
		mode:         ModeIo,
		readBuf:      make([]byte, readBufferSize),
		restore:      restore,
	}, nil
}

// Run polls the device and the key queue until the session ends.
// Quit and the end of terminal input return nil, a dead device returns its error
// and cancelling ctx returns ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := chanx.NewUnboundedChan[terminal.Key](ctx, queueInitCapacity)
	go s.capture(ctx, queue.In)

	s.status(styles.StatusInfo, "Connected at %d baud. %s %s for help, %s to exit.",
		s.currentBaudRate(), s.keys.Prefix.Help().Key, s.keys.Help.Help().Key, s.exitHint())

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for {
		if err := s.pollDevice(); err != nil {
			s.status(styles.StatusError, "Device lost: %v", err)
			return err
		}

		done, err := s.drainInput(queue.Out)
		if err != nil {
			s.status(styles.StatusError, "%v", err)
			return err
		}
		if done {
			return nil
		}

		timer.Reset(s.pollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close restores the terminal mode. Safe to call any number of times.
func (s *Session) Close() error {
	s.releaseOnce.Do(func() {
		s.releaseErr = s.restore()
	})
	return s.releaseErr
}

// pollDevice moves whatever the device has ready to the terminal
func (s *Session) pollDevice() error {
	n, err := s.dev.Read(s.readBuf)
	if n > 0 {
		s.outBuf = AppendRender(s.outBuf[:0], s.readBuf[:n], s.threshold)
		s.display(s.outBuf)
	}

	switch {
	case err == nil, errors.Is(err, serial.ErrReadTimeout):
		return nil
	case serial.IsFatal(err):
		return fmt.Errorf("read failed: %w", err)
	default:
		s.log.Error(err, "Device read failed")
		return nil
	}
}

// drainInput dispatches every queued key in order. done reports the end of the session.
func (s *Session) drainInput(out <-chan terminal.Key) (done bool, err error) {
	for {
		select {
		case k, ok := <-out:
			if !ok {
				s.log.V(1).Info("Input closed, ending session")
				return true, nil
			}
			if err := s.handle(k); err != nil {
				if errors.Is(err, errQuit) {
					return true, nil
				}
				return true, err
			}
		default:
			return false, nil
		}
	}
}

// writeDevice sends all of data to the device, resuming after short writes.
// Only a fatal error is returned.
func (s *Session) writeDevice(data []byte) error {
	for len(data) > 0 {
		n, err := s.dev.Write(data)
		data = data[min(max(n, 0), len(data)):]
		if err != nil {
			if serial.IsFatal(err) {
				return fmt.Errorf("write failed: %w", err)
			}
			s.log.Error(err, "Device write failed", "dropped", len(data))
			return nil
		}
		if n == 0 {
			s.log.Info("Device accepted no data", "dropped", len(data))
			return nil
		}
	}
	return nil
}

func (s *Session) display(p []byte) {
	if _, err := s.term.Write(p); err != nil {
		s.log.Error(err, "Terminal write failed")
	}
}

// status prints a complete line of its own between device output
func (s *Session) status(kind styles.StatusType, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.display([]byte("\r\n" + styles.GetStatusStyle(kind).Render(msg) + "\r\n"))
}

// rawLines converts newlines for a terminal in raw mode
func rawLines(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func (s *Session) currentBaudRate() int {
	if c, ok := s.dev.(Configured); ok {
		return c.Config().BaudRate
	}
	return s.ladder.Current()
}

func (s *Session) exitHint() string {
	if !s.keys.Exit.Enabled() {
		return s.keys.Prefix.Help().Key + " " + s.keys.Quit.Help().Key
	}
	return s.keys.Exit.Help().Key
}
