package device

import (
	"sync"

	"github.com/davecheney/bk/state"
)

const Sel1Address = 0177716

const (
	sel1AlwaysSet    = 1 << 7
	sel1KeyReleased  = 1 << 6
	sel1TapeInput    = 1 << 5
	sel1SpeakerOut   = 1 << 6
	sel1PagingSelect = 1 << 11
)

// SpeakerListener receives changes of the speaker output bit.
type SpeakerListener interface {
	SpeakerChanged(cpuTime int64, on bool)
}

// KeyState reports whether a key is held down.
type KeyState interface {
	IsKeyPressed() bool
}

// Sel1 is the SEL1 system register. Reads return the start address in the
// high byte together with the keyboard and tape input bits; writes drive the
// speaker and tape output. On the BK-0011M writes with bit 11 set belong to
// the page manager and are not committed here.
type Sel1 struct {
	mu           sync.Mutex
	startAddress uint16
	paging       bool
	keys         KeyState
	speaker      SpeakerListener

	output    uint16
	tapeInput bool
}

// NewSel1 returns the SEL1 register for a machine booting at startAddress.
// paging is set on the BK-0011M.
func NewSel1(startAddress uint16, paging bool, keys KeyState) *Sel1 {
	return &Sel1{startAddress: startAddress & 0177400, paging: paging, keys: keys}
}

// SetSpeakerListener registers l to receive speaker changes.
func (s *Sel1) SetSpeakerListener(l SpeakerListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaker = l
}

// SetTapeInput sets the level of the tape input line.
func (s *Sel1) SetTapeInput(level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tapeInput = level
}

// StartAddress returns the address the CPU starts at after reset.
func (s *Sel1) StartAddress() uint16 { return s.startAddress }

// Output returns the last value written.
func (s *Sel1) Output() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *Sel1) Addresses() []uint16 { return []uint16{Sel1Address} }

func (s *Sel1) Init(cpuTime int64, isHardwareReset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isHardwareReset {
		s.output = 0
	}
}

func (s *Sel1) Read(cpuTime int64, address uint16) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.startAddress | sel1AlwaysSet
	if s.keys == nil || !s.keys.IsKeyPressed() {
		v |= sel1KeyReleased
	}
	if s.tapeInput {
		v |= sel1TapeInput
	}
	return v, true
}

func (s *Sel1) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := merge(isByteMode, address, value, s.output)
	if s.paging && v&sel1PagingSelect != 0 {
		return false
	}
	changed := (v^s.output)&sel1SpeakerOut != 0
	s.output = v
	if changed && s.speaker != nil {
		s.speaker.SpeakerChanged(cpuTime, v&sel1SpeakerOut != 0)
	}
	return true
}

func (s *Sel1) SaveState(b *state.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.PutInt("sel1.output", int(s.output))
}

func (s *Sel1) RestoreState(b *state.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := state.NewReader(b)
	s.output = uint16(r.Int("sel1.output"))
	return r.Err()
}
