package device

import "github.com/davecheney/bk/state"

const (
	TimerPresetAddress  = 0177706
	TimerCounterAddress = 0177710
	TimerConfigAddress  = 0177712
)

// Timer config register bits.
const (
	TimerStop       = 1 << 0
	TimerWraparound = 1 << 1
	TimerExpEnable  = 1 << 2
	TimerOneShot    = 1 << 3
	TimerRun        = 1 << 4
	TimerDiv16      = 1 << 5
	TimerDiv4       = 1 << 6
	TimerFlag       = 1 << 7
)

// CPU clock ticks per timer count without prescaler.
const timerBaseDivider = 128

// SystemTimer is the K1801VM1 on-chip timer. The counter is not stepped on
// every tick; its value is worked out from the elapsed CPU time whenever a
// register is accessed.
type SystemTimer struct {
	preset  uint16
	counter uint16
	config  uint16

	lastTime  int64
	remainder int64
}

// NewSystemTimer returns a stopped timer.
func NewSystemTimer() *SystemTimer {
	return &SystemTimer{}
}

func (st *SystemTimer) Addresses() []uint16 {
	return []uint16{TimerPresetAddress, TimerCounterAddress, TimerConfigAddress}
}

func (st *SystemTimer) Init(cpuTime int64, isHardwareReset bool) {
	if isHardwareReset {
		st.preset = 0
		st.counter = 0177777
		st.config = 0
		st.remainder = 0
	}
	st.lastTime = cpuTime
}

func (st *SystemTimer) running() bool {
	return st.config&TimerRun != 0 && st.config&TimerStop == 0
}

func (st *SystemTimer) divider() int64 {
	d := int64(timerBaseDivider)
	if st.config&TimerDiv16 != 0 {
		d *= 16
	}
	if st.config&TimerDiv4 != 0 {
		d *= 4
	}
	return d
}

// update brings the counter up to cpuTime.
func (st *SystemTimer) update(cpuTime int64) {
	elapsed := cpuTime - st.lastTime
	st.lastTime = cpuTime
	if !st.running() || elapsed <= 0 {
		return
	}
	elapsed += st.remainder
	d := st.divider()
	st.remainder = elapsed % d
	st.count(elapsed / d)
}

// count advances the counter by n counts.
func (st *SystemTimer) count(n int64) {
	if n == 0 {
		return
	}
	// counts until the counter passes through zero
	untilZero := int64(st.counter)
	if untilZero == 0 {
		untilZero = 0200000
	}
	if n < untilZero {
		st.counter -= uint16(n)
		return
	}
	if st.config&TimerExpEnable != 0 {
		st.config |= TimerFlag
	}
	switch {
	case st.config&TimerOneShot != 0:
		st.counter = 0
		st.config &^= TimerRun
		st.remainder = 0
	case st.config&TimerWraparound != 0:
		st.counter -= uint16(n)
	default:
		period := int64(st.preset)
		if period == 0 {
			period = 0200000
		}
		st.counter = uint16(period - (n-untilZero)%period)
	}
}

func (st *SystemTimer) Read(cpuTime int64, address uint16) (uint16, bool) {
	st.update(cpuTime)
	switch address &^ 1 {
	case TimerPresetAddress:
		return st.preset, true
	case TimerCounterAddress:
		return st.counter, true
	case TimerConfigAddress:
		// unused bits read back as ones
		return st.config | 0177400, true
	}
	return 0, false
}

func (st *SystemTimer) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	st.update(cpuTime)
	switch address &^ 1 {
	case TimerPresetAddress:
		st.preset = merge(isByteMode, address, value, st.preset)
		return true
	case TimerConfigAddress:
		v := merge(isByteMode, address, value, st.config) & 0377
		wasRunning := st.running()
		st.config = v
		if !wasRunning && st.running() {
			st.counter = st.preset
			st.remainder = 0
		}
		return true
	}
	// the counter is read only
	return false
}

func (st *SystemTimer) SaveState(s *state.Bundle) {
	s.PutInt("timer.preset", int(st.preset))
	s.PutInt("timer.counter", int(st.counter))
	s.PutInt("timer.config", int(st.config))
	s.PutInt64("timer.lasttime", st.lastTime)
	s.PutInt64("timer.remainder", st.remainder)
}

func (st *SystemTimer) RestoreState(s *state.Bundle) error {
	r := state.NewReader(s)
	st.preset = uint16(r.Int("timer.preset"))
	st.counter = uint16(r.Int("timer.counter"))
	st.config = uint16(r.Int("timer.config"))
	st.lastTime = r.Int64("timer.lasttime")
	st.remainder = r.Int64("timer.remainder")
	return r.Err()
}
