// Package config loads serialterm settings from defaults, an optional YAML file,
// SERIALTERM_* environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serialterm"
	"github.com/allbin/go-serialterm/internal/terminal"
	"github.com/allbin/go-serialterm/internal/tui/keys"
)

const envPrefix = "SERIALTERM"

// Config holds the settings for one terminal session.
type Config struct {
	Baud         int           `mapstructure:"baud"`
	DataBits     int           `mapstructure:"data_bits"`
	StopBits     int           `mapstructure:"stop_bits"`
	Parity       string        `mapstructure:"parity"`
	FlowControl  string        `mapstructure:"flow_control"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	HexThreshold int           `mapstructure:"hex_threshold"`
	Newline      string        `mapstructure:"newline"`
	// OpenTimeout keeps retrying a busy or missing port; 0 tries once
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	Keys        KeysConfig    `mapstructure:"keys"`
	Log         LogConfig     `mapstructure:"log"`
}

// KeysConfig holds the session chords, spelled like "ctrl+a".
type KeysConfig struct {
	Prefix string `mapstructure:"prefix"`
	Exit   string `mapstructure:"exit"`
}

// LogConfig holds the diagnostics file settings.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// flagKeys maps config keys onto the flag names cmd registers for them
var flagKeys = map[string]string{
	"baud":          "baud",
	"data_bits":     "data-bits",
	"stop_bits":     "stop-bits",
	"parity":        "parity",
	"flow_control":  "flow-control",
	"read_timeout":  "read-timeout",
	"poll_interval": "poll-interval",
	"hex_threshold": "hex-threshold",
	"newline":       "newline",
	"open_timeout":  "open-timeout",
	"keys.prefix":   "prefix",
	"keys.exit":     "exit-key",
	"log.file":      "log-file",
	"log.level":     "log-level",
}

func setDefaults(v *viper.Viper) {
	def := serial.DefaultConfig()
	v.SetDefault("baud", def.BaudRate)
	v.SetDefault("data_bits", def.DataBits)
	v.SetDefault("stop_bits", def.StopBits)
	v.SetDefault("parity", "none")
	v.SetDefault("flow_control", "none")
	v.SetDefault("read_timeout", time.Duration(0))
	v.SetDefault("poll_interval", 100*time.Millisecond)
	v.SetDefault("hex_threshold", 0)
	v.SetDefault("newline", "cr")
	v.SetDefault("open_timeout", time.Duration(0))
	v.SetDefault("keys.prefix", keys.DefaultPrefix)
	v.SetDefault("keys.exit", keys.DefaultExit)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "debug")
}

// DefaultPath is where Load looks for a config file when none is given
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "serialterm", "config.yaml")
}

// Load resolves the configuration. A missing default config file is not an
// error; a missing explicit configFile is. Flags in fs that were set on the
// command line override everything else.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.Keys, _ = c.Keys.normalized()
	return c, nil
}

// Validate checks every setting that the port or session would otherwise reject later
func (c Config) Validate() error {
	if _, err := c.PortOptions(); err != nil {
		return err
	}
	if _, err := c.NewlineBytes(); err != nil {
		return err
	}
	if c.HexThreshold < 0 || c.HexThreshold > 0xff {
		return fmt.Errorf("%w: hex threshold %d out of range 0-255", serial.ErrInvalidConfig, c.HexThreshold)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", serial.ErrInvalidConfig)
	}
	if c.OpenTimeout < 0 {
		return fmt.Errorf("%w: open timeout must not be negative", serial.ErrInvalidConfig)
	}
	_, err := c.Keys.normalized()
	return err
}

// normalized returns the keys spelled the way the terminal decoder reports them,
// so "ctrl+B" becomes "ctrl+b" and "ctrl+i" becomes "tab"
func (k KeysConfig) normalized() (KeysConfig, error) {
	prefix, err := terminal.ParseKey(k.Prefix)
	if err != nil {
		return k, fmt.Errorf("%w: prefix key: %v", serial.ErrInvalidConfig, err)
	}
	k.Prefix = prefix.String()

	if k.Exit == "" {
		return k, nil
	}
	exit, err := terminal.ParseKey(k.Exit)
	if err != nil {
		return k, fmt.Errorf("%w: exit key: %v", serial.ErrInvalidConfig, err)
	}
	k.Exit = exit.String()
	if k.Exit == k.Prefix {
		return k, fmt.Errorf("%w: exit key and prefix are both %s", serial.ErrInvalidConfig, k.Exit)
	}
	return k, nil
}

// PortOptions converts the line settings into options for serial.Open
func (c Config) PortOptions() ([]serial.Option, error) {
	parity, err := serial.ParseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	flow, err := serial.ParseFlowControl(c.FlowControl)
	if err != nil {
		return nil, err
	}

	opts := []serial.Option{
		serial.WithBaudRate(c.Baud),
		serial.WithDataBits(c.DataBits),
		serial.WithStopBits(c.StopBits),
		serial.WithParity(parity),
		serial.WithFlowControl(flow),
		serial.WithReadTimeout(c.ReadTimeout),
	}

	// Run the options once so bad values surface before the port is touched
	probe := serial.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&probe); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// NewlineBytes is what the return key sends
func (c Config) NewlineBytes() ([]byte, error) {
	switch strings.ToLower(c.Newline) {
	case "", "cr":
		return []byte("\r"), nil
	case "lf":
		return []byte("\n"), nil
	case "crlf":
		return []byte("\r\n"), nil
	default:
		return nil, fmt.Errorf("%w: newline %q, want cr, lf or crlf", serial.ErrInvalidConfig, c.Newline)
	}
}
