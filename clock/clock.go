// Package clock converts between CPU clock ticks and wall time. The CPU tick
// counter is the only time base of the emulator; every device computes its
// timing from differences between two tick values.
package clock

import "time"

// Frequency is a CPU clock frequency in kHz.
type Frequency int64

const (
	// BK0010 is the BK-0010(01) CPU clock.
	BK0010 Frequency = 3000
	// BK0011M is the BK-0011M CPU clock.
	BK0011M Frequency = 4000
)

// NanosToTicks converts a duration in nanoseconds into clock ticks.
func (f Frequency) NanosToTicks(nanos int64) int64 {
	return nanos * int64(f) / 1000000
}

// TicksToNanos converts clock ticks into nanoseconds.
func (f Frequency) TicksToNanos(ticks int64) int64 {
	return ticks * 1000000 / int64(f)
}

// Ticks converts a duration into clock ticks.
func (f Frequency) Ticks(d time.Duration) int64 {
	return f.NanosToTicks(d.Nanoseconds())
}

// Duration converts clock ticks into a duration.
func (f Frequency) Duration(ticks int64) time.Duration {
	return time.Duration(f.TicksToNanos(ticks))
}
