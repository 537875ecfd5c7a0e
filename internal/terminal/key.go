package terminal

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyType discriminates key events decoded from the terminal
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEsc
	// KeyUnknown covers escape sequences (arrows, function keys) and invalid input
	KeyUnknown
)

// Key is one key event: its identity plus the modifiers held with it.
// Control characters decode as KeyRune with Ctrl set, so 0x01 is ctrl+a.
type Key struct {
	Type KeyType
	Rune rune
	Ctrl bool
	Alt  bool
}

var keyNames = map[KeyType]string{
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyEsc:       "esc",
	KeyUnknown:   "unknown",
}

// String names the key the way bubbles key bindings spell it ("ctrl+a", "enter", "x")
func (k Key) String() string {
	var b strings.Builder
	if k.Alt {
		b.WriteString("alt+")
	}
	if k.Ctrl {
		b.WriteString("ctrl+")
	}
	if name, ok := keyNames[k.Type]; ok {
		b.WriteString(name)
	} else {
		b.WriteRune(k.Rune)
	}
	return b.String()
}

// Printable reports whether the key is a plain character without modifiers
func (k Key) Printable() bool {
	return k.Type == KeyRune && !k.Ctrl && !k.Alt
}

// Bytes returns what the key puts on the line, nil when it has no byte form
func (k Key) Bytes() []byte {
	var out []byte
	if k.Alt {
		out = append(out, 0x1b)
	}

	switch k.Type {
	case KeyEnter:
		out = append(out, '\r')
	case KeyTab:
		out = append(out, '\t')
	case KeyBackspace:
		out = append(out, 0x7f)
	case KeyEsc:
		out = append(out, 0x1b)
	case KeyRune:
		if k.Ctrl {
			c, ok := controlByte(k.Rune)
			if !ok {
				return nil
			}
			out = append(out, c)
		} else {
			out = utf8.AppendRune(out, k.Rune)
		}
	default:
		return nil
	}
	return out
}

func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	}
	return 0, false
}

// ParseKey is the inverse of Key.String. The result is in the form the decoder
// produces, so its String may differ from s ("ctrl+Q" gives "ctrl+q").
func ParseKey(s string) (Key, error) {
	var k Key
	rest := s
	for {
		switch {
		case strings.HasPrefix(rest, "alt+"):
			k.Alt = true
			rest = rest[len("alt+"):]
			continue
		case strings.HasPrefix(rest, "ctrl+"):
			k.Ctrl = true
			rest = rest[len("ctrl+"):]
			continue
		}
		break
	}

	for t, name := range keyNames {
		if rest == name && t != KeyUnknown {
			k.Type = t
			typed, err := canonical(s, k)
			if err == nil && typed != k {
				return Key{}, fmt.Errorf("invalid key %q: types as %s", s, typed)
			}
			return typed, err
		}
	}

	r, size := utf8.DecodeRuneInString(rest)
	if rest == "" || size != len(rest) || r == utf8.RuneError {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	if k.Ctrl {
		r = toLower(r)
		if _, ok := controlByte(r); !ok {
			return Key{}, fmt.Errorf("invalid key %q: no control code for %q", s, r)
		}
	}
	k.Type = KeyRune
	k.Rune = r
	return canonical(s, k)
}

// canonical returns k as the decoder reports it when typed, so ctrl+i is tab
// and ctrl+[ is esc. Keys a terminal cannot send are rejected.
func canonical(s string, k Key) (Key, error) {
	b := k.Bytes()
	if len(b) == 0 {
		return Key{}, fmt.Errorf("invalid key %q: cannot be typed", s)
	}
	typed, size := decodeKey(b)
	if size != len(b) || typed.Type == KeyUnknown {
		return Key{}, fmt.Errorf("invalid key %q: cannot be typed", s)
	}
	return typed, nil
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 'a' - 'A'
	}
	return r
}
