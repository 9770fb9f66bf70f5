package device

import (
	"sync"

	"github.com/davecheney/bk/state"
)

const (
	KeyboardStatusAddress = 0177660
	KeyboardDataAddress   = 0177662
)

const (
	keyboardStatusDataReady  = 1 << 7
	keyboardStatusIRQDisable = 1 << 6
)

// Keyboard interrupt vectors. Codes typed with the AR2 modifier vector
// through 0274.
const (
	VectorKeyboard    = 060
	VectorKeyboardAR2 = 0274
)

// Keyboard is the keyboard controller. Key events come from the UI goroutine
// while the emulation goroutine polls the registers, so both sides lock.
type Keyboard struct {
	mu     sync.Mutex
	irq    Interrupts
	status uint16
	data   uint16

	pressed bool
}

// NewKeyboard returns a keyboard controller raising interrupts on irq.
func NewKeyboard(irq Interrupts) *Keyboard {
	return &Keyboard{irq: irq}
}

func (kb *Keyboard) Addresses() []uint16 {
	return []uint16{KeyboardStatusAddress, KeyboardDataAddress}
}

func (kb *Keyboard) Init(cpuTime int64, isHardwareReset bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.status = 0
	if isHardwareReset {
		kb.data = 0
		kb.pressed = false
	}
	kb.irq.ClearVIRQ(VIRQKeyboard)
}

func (kb *Keyboard) Read(cpuTime int64, address uint16) (uint16, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	switch address &^ 1 {
	case KeyboardStatusAddress:
		return kb.status, true
	case KeyboardDataAddress:
		kb.status &^= keyboardStatusDataReady
		kb.irq.ClearVIRQ(VIRQKeyboard)
		return kb.data, true
	}
	return 0, false
}

func (kb *Keyboard) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	if address&^1 != KeyboardStatusAddress {
		// the data register is read only
		return false
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	v := merge(isByteMode, address, value, kb.status)
	kb.status = kb.status&^keyboardStatusIRQDisable | v&keyboardStatusIRQDisable
	if kb.status&keyboardStatusIRQDisable != 0 {
		kb.irq.ClearVIRQ(VIRQKeyboard)
	}
	return true
}

// HandleKeyCode delivers a key event. A press is dropped while the previous
// code has not been read yet.
func (kb *Keyboard) HandleKeyCode(cpuTime int64, code int, isAR2 bool, pressed bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.pressed = pressed
	if !pressed || kb.status&keyboardStatusDataReady != 0 {
		return
	}
	kb.data = uint16(code) & 0177
	kb.status |= keyboardStatusDataReady
	if kb.status&keyboardStatusIRQDisable == 0 {
		vector := uint16(VectorKeyboard)
		if isAR2 {
			vector = VectorKeyboardAR2
		}
		kb.irq.RequestVIRQ(VIRQKeyboard, vector)
	}
}

// HandleStopKey signals the STOP key, wired to IRQ1.
func (kb *Keyboard) HandleStopKey() {
	kb.irq.RequestIRQ1()
}

// IsKeyPressed reports whether a key is held down.
func (kb *Keyboard) IsKeyPressed() bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.pressed
}

func (kb *Keyboard) SaveState(s *state.Bundle) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	s.PutInt("keyboard.status", int(kb.status))
	s.PutInt("keyboard.data", int(kb.data))
}

func (kb *Keyboard) RestoreState(s *state.Bundle) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	r := state.NewReader(s)
	kb.status = uint16(r.Int("keyboard.status"))
	kb.data = uint16(r.Int("keyboard.data"))
	kb.pressed = false
	return r.Err()
}
