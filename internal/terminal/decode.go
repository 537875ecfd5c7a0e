package terminal

import (
	"io"
	"time"
	"unicode/utf8"
)

const (
	esc = 0x1b
	del = 0x7f
)

// escapeWait is how long a read ending inside an escape sequence waits for the rest
const escapeWait = 50 * time.Millisecond

// Decoder turns the byte stream of a raw-mode terminal into key events.
//
// A read that ends with a lone ESC or a partial sequence waits up to escapeWait
// for more input, so an arrow key split across reads is still one key. Without
// a ready func (NewDecoder) that wait is skipped and the split pieces decode
// as esc followed by plain characters.
type Decoder struct {
	r       io.Reader
	ready   func(time.Duration) bool
	buf     [256]byte
	pending []byte
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// NewWaitingDecoder is NewDecoder with ready reporting whether r has input
// within the given time
func NewWaitingDecoder(r io.Reader, ready func(time.Duration) bool) *Decoder {
	return &Decoder{r: r, ready: ready}
}

// ReadKey blocks until the next key event. Errors come from the underlying reader.
func (d *Decoder) ReadKey() (Key, error) {
	for len(d.pending) == 0 {
		n, err := d.r.Read(d.buf[:])
		if n > 0 {
			d.pending = d.buf[:n]
			break
		}
		if err != nil {
			return Key{}, err
		}
	}

	for d.ready != nil && incompleteEscape(d.pending) && len(d.pending) < len(d.buf) && d.ready(escapeWait) {
		if !d.readMore() {
			break
		}
	}

	k, size := decodeKey(d.pending)
	d.pending = d.pending[size:]
	return k, nil
}

// readMore appends the next read to pending. A failed read is left for the
// next ReadKey to report.
func (d *Decoder) readMore() bool {
	held := copy(d.buf[:], d.pending)
	n, _ := d.r.Read(d.buf[held:])
	d.pending = d.buf[:held+n]
	return n > 0
}

// incompleteEscape reports whether b is only the start of an escape sequence
func incompleteEscape(b []byte) bool {
	if len(b) == 0 || b[0] != esc {
		return false
	}
	if len(b) == 1 {
		return true
	}
	switch b[1] {
	case 'O':
		return len(b) < 3
	case '[':
		for _, c := range b[2:] {
			if c >= 0x40 && c <= 0x7e {
				return false
			}
		}
		return true
	}
	return false
}

// decodeKey decodes the key at the start of b and returns how many bytes it used.
// A lone ESC at the end of a read is the escape key; sequences arrive in one read.
func decodeKey(b []byte) (Key, int) {
	c := b[0]
	switch {
	case c == esc:
		if len(b) == 1 {
			return Key{Type: KeyEsc}, 1
		}
		if b[1] == '[' || b[1] == 'O' {
			return Key{Type: KeyUnknown}, sequenceLen(b)
		}
		k, size := decodeKey(b[1:])
		k.Alt = true
		return k, size + 1
	case c == '\r':
		return Key{Type: KeyEnter}, 1
	case c == '\t':
		return Key{Type: KeyTab}, 1
	case c == del:
		return Key{Type: KeyBackspace}, 1
	case c >= 0x01 && c <= 0x1a:
		return Key{Type: KeyRune, Rune: rune('a' + c - 1), Ctrl: true}, 1
	case c < 0x20:
		return Key{Type: KeyRune, Rune: rune('@' + c), Ctrl: true}, 1
	}

	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError {
		return Key{Type: KeyUnknown}, size
	}
	return Key{Type: KeyRune, Rune: r}, size
}

// sequenceLen measures a CSI (ESC [ ... final) or SS3 (ESC O x) sequence
func sequenceLen(b []byte) int {
	if b[1] == 'O' {
		return min(3, len(b))
	}
	for i := 2; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return i + 1
		}
	}
	return len(b)
}
