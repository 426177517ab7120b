package core

import (
	"errors"
	"time"
)

// fakeClock only moves when something sleeps on it.
type fakeClock struct {
	now    Instant
	sleeps int
}

func (c *fakeClock) Now() Instant {
	return c.now
}

func (c *fakeClock) SleepFor(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(int64(d / time.Microsecond))
}

type pinWrite struct {
	pin   GPIOPin
	value bool
	at    Instant
}

var errBusFault = errors.New("bus fault")

// fakePins records every write and can fail on the Nth one.
type fakePins struct {
	clock   *fakeClock
	levels  map[GPIOPin]bool
	writes  []pinWrite
	failAt  int // 1-based write number to fail, 0 for never
	onWrite func(n int)
}

func newFakePins(clock *fakeClock) *fakePins {
	return &fakePins{clock: clock, levels: make(map[GPIOPin]bool)}
}

func (p *fakePins) SetPin(pin GPIOPin, value bool) error {
	n := len(p.writes) + 1
	if p.failAt != 0 && n == p.failAt {
		return errBusFault
	}
	var at Instant
	if p.clock != nil {
		at = p.clock.now
	}
	p.writes = append(p.writes, pinWrite{pin: pin, value: value, at: at})
	p.levels[pin] = value
	if p.onWrite != nil {
		p.onWrite(n)
	}
	return nil
}

// vector returns the current levels of pins, in order.
func (p *fakePins) vector(pins []GPIOPin) PhaseVector {
	v := make(PhaseVector, len(pins))
	for i, pin := range pins {
		v[i] = p.levels[pin]
	}
	return v
}

// risingEdges returns the times pin went high.
func (p *fakePins) risingEdges(pin GPIOPin) []Instant {
	var out []Instant
	for _, w := range p.writes {
		if w.pin == pin && w.value {
			out = append(out, w.at)
		}
	}
	return out
}
