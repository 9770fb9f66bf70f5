package computer

import (
	"fmt"
	"sort"

	"github.com/davecheney/bk/device"
	"github.com/davecheney/bk/memory"
	"github.com/davecheney/bk/state"
)

const (
	slotShift = 12 // 4 KiB
	numSlots  = 1 << (16 - slotShift)
)

// Bus routes CPU accesses to memory and devices. The I/O registers come
// first; everything else goes through the memory slot for the address.
type Bus struct {
	now func() int64

	slots    [numSlots][]memory.Memory
	devices  map[uint16][]device.Device
	attached []device.Device
	timers   []device.Timer
}

// NewBus returns an empty bus. now reports the current CPU time to devices.
func NewBus(now func() int64) *Bus {
	return &Bus{now: now, devices: make(map[uint16][]device.Device)}
}

// AddMemory maps m into every slot it covers.
func (b *Bus) AddMemory(m memory.Memory) {
	first := int(m.Start()) >> slotShift
	last := (int(m.Start()) + m.Size() - 1) >> slotShift
	for s := first; s <= last && s < numSlots; s++ {
		b.slots[s] = append(b.slots[s], m)
	}
}

// AddDevice registers d at each of its addresses. Several devices may share
// an address.
func (b *Bus) AddDevice(d device.Device) {
	for _, a := range d.Addresses() {
		b.devices[a&^1] = append(b.devices[a&^1], d)
	}
	b.attached = append(b.attached, d)
	if t, ok := d.(device.Timer); ok {
		b.timers = append(b.timers, t)
	}
}

// Devices returns the attached devices in registration order.
func (b *Bus) Devices() []device.Device { return b.attached }

// Addresses returns the device register addresses in ascending order.
func (b *Bus) Addresses() []uint16 {
	addrs := make([]uint16, 0, len(b.devices))
	for a := range b.devices {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func byteOf(address, w uint16) uint16 {
	if address&1 != 0 {
		return w >> 8
	}
	return w & 0377
}

func (b *Bus) Read(isByteMode bool, address uint16) (uint16, bool) {
	w, ok := b.read(address)
	if !ok {
		return 0, false
	}
	if isByteMode {
		return byteOf(address, w), true
	}
	return w, true
}

func (b *Bus) read(address uint16) (uint16, bool) {
	if devs, ok := b.devices[address&^1]; ok {
		var v uint16
		found := false
		now := b.now()
		for _, d := range devs {
			if dv, ok := d.Read(now, address); ok {
				v |= dv
				found = true
			}
		}
		return v, found
	}
	for _, m := range b.slots[address>>slotShift] {
		if v, ok := m.Read(address &^ 1); ok {
			return v, true
		}
	}
	return 0, false
}

// Write sends value to every device at address, or to the memory mapped
// there. A device that does not commit the write still completes the bus
// cycle.
func (b *Bus) Write(isByteMode bool, address uint16, value uint16) bool {
	if isByteMode {
		value &= 0377
	}
	if devs, ok := b.devices[address&^1]; ok {
		now := b.now()
		for _, d := range devs {
			d.Write(now, isByteMode, address, value)
		}
		return true
	}
	for _, m := range b.slots[address>>slotShift] {
		if !isByteMode {
			address &^= 1
		}
		if m.Write(isByteMode, address, value) {
			return true
		}
	}
	return false
}

func (b *Bus) IsReadOnly(address uint16) bool {
	for _, m := range b.slots[address>>slotShift] {
		if _, ok := m.Read(address &^ 1); ok {
			return m.IsReadOnly(address)
		}
	}
	return false
}

// Reset initialises every device.
func (b *Bus) Reset(cpuTime int64, isHardwareReset bool) {
	for _, d := range b.attached {
		d.Init(cpuTime, isHardwareReset)
	}
}

// Timer runs the devices that follow the time base.
func (b *Bus) Timer(cpuTime int64) {
	for _, t := range b.timers {
		t.Timer(cpuTime)
	}
}

func (b *Bus) SaveState(s *state.Bundle) {
	for _, d := range b.attached {
		d.SaveState(s)
	}
}

func (b *Bus) RestoreState(s *state.Bundle) error {
	for _, d := range b.attached {
		if err := d.RestoreState(s); err != nil {
			return fmt.Errorf("computer: restore %T: %w", d, err)
		}
	}
	return nil
}
