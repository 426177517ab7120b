//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"gostep/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hwClock reads the RP2040 1MHz hardware timer, so sequencer pacing
// does not depend on the runtime's notion of time.
type hwClock struct{}

// Now returns the 64-bit microsecond counter
func (hwClock) Now() core.Instant {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return core.Instant(uint64(high1)<<32 | uint64(low))
		}
	}
}

// SleepFor yields to the scheduler
func (hwClock) SleepFor(d time.Duration) {
	time.Sleep(d)
}
