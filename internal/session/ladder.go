package session

// ladderRates are the rates the baud up/down commands cycle through
var ladderRates = [...]int{9600, 19200, 38400, 57600, 115200, 230400}

// Ladder steps through ladderRates with wraparound at both ends
type Ladder struct {
	index int
}

// NewLadder starts at initial, or at the first rate when initial is not on the ladder
func NewLadder(initial int) *Ladder {
	l := &Ladder{}
	for i, rate := range ladderRates {
		if rate == initial {
			l.index = i
		}
	}
	return l
}

// Rates returns a copy of the ladder
func Rates() []int {
	return append([]int(nil), ladderRates[:]...)
}

func (l *Ladder) Increase() int {
	l.index++
	if l.index >= len(ladderRates) {
		l.index = 0
	}
	return ladderRates[l.index]
}

func (l *Ladder) Decrease() int {
	l.index--
	if l.index < 0 {
		l.index = len(ladderRates) - 1
	}
	return ladderRates[l.index]
}

func (l *Ladder) Current() int {
	if l.index < 0 || l.index >= len(ladderRates) {
		l.index = 0
	}
	return ladderRates[l.index]
}

func (l *Ladder) Index() int {
	return l.index
}
