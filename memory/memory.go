// Package memory implements the RAM and ROM regions of the address space. A
// Block is raw storage; a Memory maps storage into the 64 KiB address space,
// either permanently (Fixed) or through a switchable window (Selectable) as
// used by the BK-0011M page manager.
package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/davecheney/bk/state"
)

// Block is a bank of words.
type Block struct {
	id       string
	data     []uint16
	readOnly bool
}

// NewRAM returns a zero filled RAM block of size bytes.
func NewRAM(id string, size int) *Block {
	return &Block{id: id, data: make([]uint16, size/2)}
}

// NewROM returns a ROM block of size bytes initialised from data. Bytes not
// covered by data read as 0377, as on an unprogrammed chip.
func NewROM(id string, data []byte, size int) (*Block, error) {
	if len(data) > size {
		return nil, fmt.Errorf("memory: rom %s is %d bytes, larger than its %d byte window", id, len(data), size)
	}
	b := &Block{id: id, data: make([]uint16, size/2), readOnly: true}
	for i := range b.data {
		b.data[i] = 0177777
	}
	for i := 0; i+1 < len(data); i += 2 {
		b.data[i/2] = binary.LittleEndian.Uint16(data[i:])
	}
	if len(data)%2 == 1 {
		b.data[len(data)/2] = 0177400 | uint16(data[len(data)-1])
	}
	return b, nil
}

// ID returns the block identifier.
func (b *Block) ID() string { return b.id }

// Size returns the block size in bytes.
func (b *Block) Size() int { return len(b.data) * 2 }

// IsReadOnly reports whether the block is ROM.
func (b *Block) IsReadOnly() bool { return b.readOnly }

// Read returns the word at byte offset off.
func (b *Block) Read(off int) uint16 {
	return b.data[off>>1]
}

// Write stores value at byte offset off. In byte mode only the low byte of
// value is used and it lands in the byte selected by off. Writes to ROM are
// ignored.
func (b *Block) Write(isByteMode bool, off int, value uint16) {
	if b.readOnly {
		return
	}
	i := off >> 1
	if !isByteMode {
		b.data[i] = value
		return
	}
	if off&1 == 0 {
		b.data[i] = b.data[i]&0177400 | value&0377
	} else {
		b.data[i] = b.data[i]&0377 | value<<8
	}
}

// SaveState stores RAM contents. ROM is reloaded from its source instead.
func (b *Block) SaveState(s *state.Bundle) {
	if b.readOnly {
		return
	}
	buf := make([]byte, len(b.data)*2)
	for i, w := range b.data {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	s.PutBytes("memory."+b.id, buf)
}

// RestoreState loads RAM contents saved by SaveState.
func (b *Block) RestoreState(s *state.Bundle) error {
	if b.readOnly {
		return nil
	}
	buf, ok := s.Bytes("memory." + b.id)
	if !ok || len(buf) != len(b.data)*2 {
		return fmt.Errorf("memory: no saved contents for %s", b.id)
	}
	for i := range b.data {
		b.data[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return nil
}

// Memory is a region of the address space backed by a Block.
type Memory interface {
	// Start returns the first address of the region.
	Start() uint16

	// Size returns the region size in bytes.
	Size() int

	// Read returns the word at address. The second value is false when nothing
	// responds at address.
	Read(address uint16) (uint16, bool)

	// Write stores value at address and reports whether the region responded.
	Write(isByteMode bool, address uint16, value uint16) bool

	// IsReadOnly reports whether address is currently backed by ROM.
	IsReadOnly(address uint16) bool
}

// Fixed maps a block at a permanent start address.
type Fixed struct {
	start uint16
	block *Block
}

// NewFixed maps block at start.
func NewFixed(start uint16, block *Block) *Fixed {
	return &Fixed{start: start, block: block}
}

func (m *Fixed) Start() uint16 { return m.start }
func (m *Fixed) Size() int     { return m.block.Size() }
func (m *Fixed) Block() *Block { return m.block }

func (m *Fixed) contains(address uint16) bool {
	return address >= m.start && int(address-m.start) < m.block.Size()
}

func (m *Fixed) Read(address uint16) (uint16, bool) {
	if !m.contains(address) {
		return 0, false
	}
	return m.block.Read(int(address - m.start)), true
}

func (m *Fixed) Write(isByteMode bool, address uint16, value uint16) bool {
	if !m.contains(address) {
		return false
	}
	m.block.Write(isByteMode, int(address-m.start), value)
	return true
}

func (m *Fixed) IsReadOnly(address uint16) bool {
	return m.contains(address) && m.block.IsReadOnly()
}

// Selectable is a window of the address space that shows one of several
// blocks at a time. A window with no block selected does not respond.
type Selectable struct {
	start    uint16
	size     int
	selected *Block
}

// NewSelectable returns an empty window of size bytes at start.
func NewSelectable(start uint16, size int) *Selectable {
	return &Selectable{start: start, size: size}
}

// Select shows block in the window. A nil block empties the window.
func (m *Selectable) Select(block *Block) {
	m.selected = block
}

// Selected returns the block currently shown, or nil.
func (m *Selectable) Selected() *Block { return m.selected }

func (m *Selectable) Start() uint16 { return m.start }
func (m *Selectable) Size() int     { return m.size }

func (m *Selectable) offset(address uint16) (int, bool) {
	if m.selected == nil || address < m.start {
		return 0, false
	}
	off := int(address - m.start)
	if off >= m.size || off >= m.selected.Size() {
		return 0, false
	}
	return off, true
}

func (m *Selectable) Read(address uint16) (uint16, bool) {
	off, ok := m.offset(address)
	if !ok {
		return 0, false
	}
	return m.selected.Read(off), true
}

func (m *Selectable) Write(isByteMode bool, address uint16, value uint16) bool {
	off, ok := m.offset(address)
	if !ok {
		return false
	}
	m.selected.Write(isByteMode, off, value)
	return true
}

func (m *Selectable) IsReadOnly(address uint16) bool {
	_, ok := m.offset(address)
	return ok && m.selected.IsReadOnly()
}
