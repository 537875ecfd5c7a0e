/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/config"
	"github.com/allbin/go-serialterm/internal/logger"
	"github.com/allbin/go-serialterm/internal/session"
	"github.com/allbin/go-serialterm/internal/terminal"
	"github.com/allbin/go-serialterm/internal/tui/components"
	"github.com/allbin/go-serialterm/internal/tui/keys"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Open an interactive terminal session on a serial port",
	Long: `Open an interactive terminal session on a serial port.

Without a port argument a picker lists the ports found on the system.

Commands, typed after the prefix (ctrl+a by default):
  q  quit                 u  baud rate up        d  baud rate down
  x  set hex threshold    h  help                v  show settings
  t  toggle DTR           r  toggle RTS          prefix again sends the prefix

Bytes below the hex threshold are shown as <0xNN>. The threshold is entered in
hex and committed with enter; 0 shows everything raw.

ctrl+q (configurable with --exit-key) ends the session directly.

Example usage:
  serialterm connect /dev/ttyUSB0
  serialterm connect /dev/ttyUSB0 --baud 9600 --parity even
  serialterm connect /dev/ttyACM0 --hex-threshold 0x20 --newline crlf
  serialterm connect /dev/ttyUSB0 --open-timeout 30s`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cmd.Flags(), cfgFile)
		if err != nil {
			exitWithError(err)
		}

		if cfg.Log.File != "" {
			level, err := logger.StringToLevel(cfg.Log.Level, zapcore.DebugLevel)
			if err != nil {
				exitWithError(err)
			}
			if err := log.AddFile(cfg.Log.File, level); err != nil {
				exitWithError(err)
			}
		}

		var portPath string
		if len(args) == 1 {
			portPath = args[0]
		} else if portPath, err = pickPort(); err != nil {
			exitWithError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runSession(ctx, portPath, cfg); err != nil {
			stop()
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	f := connectCmd.Flags()
	f.IntP("baud", "b", 115200, "Baud rate")
	f.Int("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	f.Int("stop-bits", 1, "Stop bits: 1 or 2")
	f.StringP("parity", "p", "none", "Parity: none, odd, even, mark, space")
	f.StringP("flow-control", "f", "none", "Flow control: none, rtscts, xonxoff")
	f.Duration("read-timeout", 0, "Device read timeout, multiple of 100ms (0 polls without waiting)")
	f.Duration("poll-interval", session.DefaultPollInterval, "Pause between polls of device and keyboard")
	f.IntP("hex-threshold", "x", 0, "Show bytes below this value as <0xNN> (accepts 0x20)")
	f.String("newline", "cr", "Bytes sent for the return key: cr, lf, crlf")
	f.Duration("open-timeout", 0, "Keep retrying a missing or busy port for this long")
	f.String("prefix", keys.DefaultPrefix, "Command prefix key")
	f.String("exit-key", keys.DefaultExit, "Key ending the session immediately, empty to disable")
	f.String("log-file", "", "Also write JSON diagnostics to this file")
	f.String("log-level", "debug", "Level for the diagnostics file")
}

func pickPort() (string, error) {
	paths, err := serial.ListPorts()
	if err != nil {
		return "", fmt.Errorf("failed to list ports: %w", err)
	}
	if len(paths) == 0 {
		return "", errors.New("no serial ports found, pass the port path explicitly")
	}

	infos := make([]*serial.PortInfo, 0, len(paths))
	for _, path := range paths {
		if info, err := serial.GetPortInfo(path); err == nil {
			infos = append(infos, info)
		}
	}
	return components.PickPort(infos)
}

// openPort opens the port, retrying while it is missing or busy until timeout passes
func openPort(ctx context.Context, path string, timeout time.Duration, opts []serial.Option) (serial.Port, error) {
	if timeout <= 0 {
		return serial.Open(path, opts...)
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(timeout),
	)

	return backoff.RetryNotifyWithData(func() (serial.Port, error) {
		port, err := serial.Open(path, opts...)
		if err != nil && !errors.Is(err, serial.ErrDeviceNotFound) && !errors.Is(err, serial.ErrDeviceInUse) {
			return nil, backoff.Permanent(err)
		}
		return port, err
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Info("Port not available yet", "port", path, "reason", err.Error(), "retryIn", next)
	})
}

func runSession(ctx context.Context, portPath string, cfg config.Config) error {
	opts, err := cfg.PortOptions()
	if err != nil {
		return err
	}
	newline, err := cfg.NewlineBytes()
	if err != nil {
		return err
	}

	port, err := openPort(ctx, portPath, cfg.OpenTimeout, opts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.V(1).Info("Port opened", "port", portPath, "settings", port.Config().String())

	console, err := terminal.NewConsole(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to open console: %w", err)
	}
	defer console.Close()

	s, err := session.New(session.Config{
		BaudRate:     cfg.Baud,
		HexThreshold: byte(cfg.HexThreshold),
		PollInterval: cfg.PollInterval,
		Newline:      newline,
		Keys:         keys.NewSessionKeys(cfg.Keys.Prefix, cfg.Keys.Exit),
	}, port, console, log.WithName("session"))
	if err != nil {
		return err
	}

	err = s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
