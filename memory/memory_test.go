package memory

import (
	"testing"

	"github.com/davecheney/bk/state"
	"github.com/matryer/is"
)

func TestRAMByteWrites(t *testing.T) {
	is := is.New(t)

	ram := NewFixed(0, NewRAM("ram", 040000))
	is.True(ram.Write(false, 01000, 0123456))
	v, ok := ram.Read(01000)
	is.True(ok)
	is.Equal(v, uint16(0123456))

	// low byte
	ram.Write(true, 01000, 0377)
	v, _ = ram.Read(01000)
	is.Equal(v, uint16(0123777))

	// high byte
	ram.Write(true, 01001, 0)
	v, _ = ram.Read(01000)
	is.Equal(v, uint16(0000377))

	_, ok = ram.Read(040000)
	is.True(!ok)
}

func TestROMIgnoresWrites(t *testing.T) {
	is := is.New(t)

	block, err := NewROM("monitor", []byte{0x34, 0x12, 0x78}, 020000)
	is.NoErr(err)
	rom := NewFixed(0100000, block)

	v, _ := rom.Read(0100000)
	is.Equal(v, uint16(0x1234))
	v, _ = rom.Read(0100002)
	is.Equal(v, uint16(0177400|0x78))
	v, _ = rom.Read(0100004)
	is.Equal(v, uint16(0177777))

	is.True(rom.Write(false, 0100000, 0)) // responds
	v, _ = rom.Read(0100000)
	is.Equal(v, uint16(0x1234)) // but keeps its contents
	is.True(rom.IsReadOnly(0100000))
	is.True(!rom.IsReadOnly(0))

	_, err = NewROM("big", make([]byte, 3), 2)
	is.True(err != nil)
}

func TestSelectable(t *testing.T) {
	is := is.New(t)

	page0 := NewRAM("page0", 040000)
	page1 := NewRAM("page1", 040000)
	rom, _ := NewROM("basic", nil, 020000)

	w := NewSelectable(0100000, 040000)
	_, ok := w.Read(0100000)
	is.True(!ok) // nothing selected

	w.Select(page0)
	w.Write(false, 0100000, 1)
	w.Select(page1)
	w.Write(false, 0100000, 2)

	w.Select(page0)
	v, _ := w.Read(0100000)
	is.Equal(v, uint16(1))
	w.Select(page1)
	v, _ = w.Read(0100000)
	is.Equal(v, uint16(2))

	// a smaller rom leaves the top of the window unmapped
	w.Select(rom)
	is.True(w.IsReadOnly(0100000))
	_, ok = w.Read(0120000)
	is.True(!ok)
}

func TestBlockState(t *testing.T) {
	is := is.New(t)

	ram := NewRAM("ram", 16)
	ram.Write(false, 2, 0xBEEF)
	s := state.New()
	ram.SaveState(s)

	restored := NewRAM("ram", 16)
	is.NoErr(restored.RestoreState(s))
	is.Equal(restored.Read(2), uint16(0xBEEF))

	other := NewRAM("other", 16)
	is.True(other.RestoreState(s) != nil)
}
