package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// SequencerEvent captures a sequencing event for post-mortem analysis
type SequencerEvent struct {
	EventType uint8  // Event type code
	Seq       uint32 // Monotonic event counter
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtEmit     = 1 // Unit step emitted (v1=position in run, v2=step count)
	EvtSaturate = 2 // Request clamped (v1=requested, v2=effective)
	EvtSleep    = 3 // Outputs released
	EvtWake     = 4 // Outputs energized
	EvtPinFault = 5 // Pin write failed (v1=pin)
	EvtCancel   = 6 // Run cancelled (v1=steps emitted)
	EvtBeep     = 7 // Beep started (v1=half period us, v2=cycles)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer, shared by every sequencer and guarded
	// by eventMu
	eventMu       sync.Mutex
	eventRing     [EventRingSize]SequencerEvent
	eventRingHead uint8
	eventSeq      uint32
	eventsEnabled bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a logger, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventsEnabled turns event capture on or off
func SetEventsEnabled(enabled bool) {
	eventMu.Lock()
	eventsEnabled = enabled
	eventMu.Unlock()
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer. Safe to call from
// several goroutines.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	eventMu.Lock()
	defer eventMu.Unlock()
	if !eventsEnabled {
		return
	}
	eventSeq++
	idx := eventRingHead
	eventRing[idx] = SequencerEvent{
		EventType: eventType,
		Seq:       eventSeq,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the captured events, oldest first.
func Events() []SequencerEvent {
	eventMu.Lock()
	defer eventMu.Unlock()
	out := make([]SequencerEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func eventName(t uint8) string {
	switch t {
	case EvtEmit:
		return "EMIT"
	case EvtSaturate:
		return "SATURATE"
	case EvtSleep:
		return "SLEEP"
	case EvtWake:
		return "WAKE"
	case EvtPinFault:
		return "PIN_FAULT!"
	case EvtCancel:
		return "CANCEL"
	case EvtBeep:
		return "BEEP"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents outputs the event ring (call on shutdown/error)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + eventName(evt.EventType) +
			" seq=" + utoa(evt.Seq) +
			" v1=" + itoa(int(int32(evt.Value1))) +
			" v2=" + itoa(int(int32(evt.Value2))))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	eventMu.Lock()
	defer eventMu.Unlock()
	for i := range eventRing {
		eventRing[i] = SequencerEvent{}
	}
	eventRingHead = 0
	eventSeq = 0
}
