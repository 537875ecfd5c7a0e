package session

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/key"

	"github.com/allbin/go-serialterm/internal/terminal"
)

// capture forwards terminal keys to the queue until input ends or the exit
// chord is pressed. Closing in is how the Run loop learns that input is over.
func (s *Session) capture(ctx context.Context, in chan<- terminal.Key) {
	defer close(in)

	for {
		k, err := s.term.ReadKey()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, terminal.ErrClosed) {
				s.log.Error(err, "Reading terminal input failed")
			}
			return
		}

		if key.Matches(k, s.keys.Exit) {
			s.log.V(1).Info("Exit chord pressed", "key", k.String())
			return
		}
		if k.Type == terminal.KeyUnknown {
			s.log.V(1).Info("Ignoring unrecognized key")
			continue
		}

		select {
		case in <- k:
		case <-ctx.Done():
			return
		}
	}
}
