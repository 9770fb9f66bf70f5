package device

import (
	"sync"

	"github.com/davecheney/bk/state"
)

const PeripheralPortAddress = 0177714

// PeripheralPort is the parallel port. Writes latch the output lines; reads
// return the input lines, driven by whatever is plugged in (a joystick on
// most machines).
type PeripheralPort struct {
	mu     sync.Mutex
	output uint16
	input  uint16
}

func NewPeripheralPort() *PeripheralPort {
	return &PeripheralPort{}
}

func (p *PeripheralPort) Addresses() []uint16 { return []uint16{PeripheralPortAddress} }

func (p *PeripheralPort) Init(cpuTime int64, isHardwareReset bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = 0
}

func (p *PeripheralPort) Read(cpuTime int64, address uint16) (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input, true
}

func (p *PeripheralPort) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = merge(isByteMode, address, value, p.output)
	return true
}

// SetInput sets the input lines. Called from the UI goroutine.
func (p *PeripheralPort) SetInput(mask uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = mask
}

// Output returns the latched output lines.
func (p *PeripheralPort) Output() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

func (p *PeripheralPort) SaveState(s *state.Bundle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.PutInt("port.output", int(p.output))
}

func (p *PeripheralPort) RestoreState(s *state.Bundle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := state.NewReader(s)
	p.output = uint16(r.Int("port.output"))
	return r.Err()
}
