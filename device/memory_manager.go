package device

import (
	"fmt"

	"github.com/davecheney/bk/memory"
	"github.com/davecheney/bk/state"
)

const MemoryManagerAddress = Sel1Address

// BK-0011M page register layout.
const (
	pagesSelect       = 1 << 11
	pagesWindow0Shift = 12
	pagesWindow1Shift = 8
)

// rom page select bits, in order of precedence.
var romPageBits = [...]uint16{1 << 0, 1 << 1, 1 << 3, 1 << 4}

// MemoryManagerInitialValue is the page register value after power on: RAM
// page 1 in the first window and ROM page 0 in the second.
const MemoryManagerInitialValue = pagesSelect | 1<<pagesWindow0Shift | 1<<0

// MemoryManager is the BK-0011M page manager. It switches the RAM page shown
// at 040000-077777 (window 0) and the RAM or ROM page shown at
// 0100000-0137777 (window 1).
type MemoryManager struct {
	windows  [2]*memory.Selectable
	ramPages []*memory.Block
	romPages []*memory.Block

	value uint16
}

// NewMemoryManager returns a page manager switching the two windows between
// ramPages (up to 8) and romPages (up to 4, entries may be nil).
func NewMemoryManager(window0, window1 *memory.Selectable, ramPages, romPages []*memory.Block) *MemoryManager {
	return &MemoryManager{
		windows:  [2]*memory.Selectable{window0, window1},
		ramPages: ramPages,
		romPages: romPages,
	}
}

func (mm *MemoryManager) Addresses() []uint16 { return []uint16{MemoryManagerAddress} }

func (mm *MemoryManager) Init(cpuTime int64, isHardwareReset bool) {
	if isHardwareReset {
		mm.selectPages(MemoryManagerInitialValue)
	}
}

// Read does not respond; the address belongs to SEL1 for reads.
func (mm *MemoryManager) Read(cpuTime int64, address uint16) (uint16, bool) {
	return 0, false
}

func (mm *MemoryManager) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	if isByteMode || value&pagesSelect == 0 {
		return false
	}
	mm.selectPages(value)
	return true
}

func (mm *MemoryManager) ramPage(n uint16) *memory.Block {
	if int(n) < len(mm.ramPages) {
		return mm.ramPages[n]
	}
	return nil
}

func (mm *MemoryManager) selectPages(value uint16) {
	mm.value = value
	mm.windows[0].Select(mm.ramPage(value >> pagesWindow0Shift & 7))
	for i, bit := range romPageBits {
		if value&bit != 0 {
			var rom *memory.Block
			if i < len(mm.romPages) {
				rom = mm.romPages[i]
			}
			// a missing rom chip leaves the window unmapped
			mm.windows[1].Select(rom)
			return
		}
	}
	mm.windows[1].Select(mm.ramPage(value >> pagesWindow1Shift & 7))
}

// Value returns the last page register value.
func (mm *MemoryManager) Value() uint16 { return mm.value }

func (mm *MemoryManager) String() string {
	return fmt.Sprintf("pages: %06o", mm.value)
}

func (mm *MemoryManager) SaveState(s *state.Bundle) {
	s.PutInt("memorymanager.value", int(mm.value))
}

func (mm *MemoryManager) RestoreState(s *state.Bundle) error {
	r := state.NewReader(s)
	v := r.Int("memorymanager.value")
	if err := r.Err(); err != nil {
		return err
	}
	mm.selectPages(uint16(v))
	return nil
}
