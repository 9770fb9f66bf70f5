// Package computer assembles a BK-0010 or BK-0011M from the CPU, memory and
// devices, and drives it in real time.
package computer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/davecheney/bk/clock"
	"github.com/davecheney/bk/cpu"
	"github.com/davecheney/bk/device"
	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/floppy"
	"github.com/davecheney/bk/ide"
	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/memory"
	"github.com/davecheney/bk/state"
)

// Computer is a complete machine. The emulation goroutine runs it through
// Run; the other methods may be called from any goroutine.
type Computer struct {
	mu sync.Mutex // held while instructions execute

	config Configuration
	freq   clock.Frequency
	cpu    *cpu.CPU
	bus    *Bus
	ram    []*memory.Block

	keyboard      *device.Keyboard
	sel1          *device.Sel1
	video         *device.Video
	timer         *device.SystemTimer
	port          *device.PeripheralPort
	memoryManager *device.MemoryManager
	floppy        *floppy.Controller
	ide           *ide.Controller

	// cpu time published by the run loop for other goroutines
	now atomic.Int64

	run runState
}

// New builds the machine described by config with ROMs from roms. The
// machine is powered off until Reset.
func New(config Configuration, roms ROMProvider) (*Computer, error) {
	c := &Computer{config: config, freq: config.Model.Frequency()}
	c.run.init()
	c.bus = NewBus(func() int64 { return c.cpu.Time() })
	c.cpu = cpu.New(c.bus)
	c.keyboard = device.NewKeyboard(c.cpu)

	var err error
	switch config.Model {
	case BK0010:
		err = c.buildBK0010()
	case BK0011M:
		err = c.buildBK0011M(roms)
	default:
		err = fmt.Errorf("computer: unknown model %v", config.Model)
	}
	if err != nil {
		return nil, err
	}
	if err := c.loadROMs(roms); err != nil {
		return nil, err
	}

	c.timer = device.NewSystemTimer()
	c.port = device.NewPeripheralPort()
	c.bus.AddDevice(c.keyboard)
	c.bus.AddDevice(c.sel1)
	if c.memoryManager != nil {
		c.bus.AddDevice(c.memoryManager)
	}
	c.bus.AddDevice(c.video)
	if config.Model == BK0011M {
		c.bus.AddDevice(device.NewVideoManager(c.video))
	}
	c.bus.AddDevice(c.timer)
	c.bus.AddDevice(c.port)
	if config.Floppy {
		c.floppy = floppy.NewController(c.freq)
		c.bus.AddDevice(c.floppy)
	}
	if config.IDE {
		c.ide = ide.NewController()
		c.bus.AddDevice(ide.NewSmkController(c.ide))
	}
	logger.Logf("computer", "%s: %s at %d kHz", config.Name, config.Model, c.freq)
	return c, nil
}

func (c *Computer) addRAM(start uint16, b *memory.Block) {
	c.ram = append(c.ram, b)
	c.bus.AddMemory(memory.NewFixed(start, b))
}

func (c *Computer) buildBK0010() error {
	c.addRAM(0, memory.NewRAM("ram", 040000))
	screen := memory.NewRAM("screen", 040000)
	c.addRAM(040000, screen)
	if c.config.extraRAM {
		c.addRAM(0120000, memory.NewRAM("ram_ext", 040000))
	}
	c.video = device.NewVideo(c.cpu, c.freq, false, screen)
	c.sel1 = device.NewSel1(BK0010.StartAddress(), false, c.keyboard)
	return nil
}

func (c *Computer) buildBK0011M(roms ROMProvider) error {
	pages := make([]*memory.Block, 8)
	for i := range pages {
		pages[i] = memory.NewRAM(fmt.Sprintf("page%d", i), romPageSize)
		c.ram = append(c.ram, pages[i])
	}
	c.bus.AddMemory(memory.NewFixed(0, pages[0]))
	window0 := memory.NewSelectable(040000, romPageSize)
	window1 := memory.NewSelectable(0100000, romPageSize)
	c.bus.AddMemory(window0)
	c.bus.AddMemory(window1)

	romPages := make([]*memory.Block, len(c.config.romPages))
	for i, id := range c.config.romPages {
		if id == "" {
			continue
		}
		data, err := roms.ReadOnlyMemoryData(id)
		if err != nil {
			return err
		}
		if romPages[i], err = memory.NewROM(id, data, romPageSize); err != nil {
			return err
		}
	}
	c.memoryManager = device.NewMemoryManager(window0, window1, pages, romPages)
	c.video = device.NewVideo(c.cpu, c.freq, true, pages[1], pages[7])
	c.sel1 = device.NewSel1(BK0011M.StartAddress(), true, c.keyboard)
	return nil
}

func (c *Computer) loadROMs(roms ROMProvider) error {
	for _, r := range c.config.roms {
		data, err := roms.ReadOnlyMemoryData(r.id)
		if r.optional && errors.Is(err, ErrROMNotFound) {
			logger.Logf("computer", "optional rom %s not present", r.id)
			continue
		}
		if err != nil {
			return err
		}
		b, err := memory.NewROM(r.id, data, r.size)
		if err != nil {
			return err
		}
		c.bus.AddMemory(memory.NewFixed(r.start, b))
	}
	return nil
}

// Configuration returns the configuration the machine was built from.
func (c *Computer) Configuration() Configuration { return c.config }

// Frequency returns the CPU clock.
func (c *Computer) Frequency() clock.Frequency { return c.freq }

// CPU returns the processor. It must only be used while the machine is not
// running.
func (c *Computer) CPU() *cpu.CPU { return c.cpu }

// Bus returns the address space router.
func (c *Computer) Bus() *Bus { return c.bus }

// Video returns the video controller.
func (c *Computer) Video() *device.Video { return c.video }

// Port returns the peripheral port.
func (c *Computer) Port() *device.PeripheralPort { return c.port }

// Time returns the CPU time as of the last executed instruction batch.
func (c *Computer) Time() int64 { return c.now.Load() }

// Reset performs a power on reset.
func (c *Computer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cpu.Reset()
	c.now.Store(c.cpu.Time())
}

// SetTrace writes a disassembly of each executed instruction to w.
func (c *Computer) SetTrace(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cpu.SetTrace(w)
}

// AddTrapListener registers l with the CPU.
func (c *Computer) AddTrapListener(l cpu.TrapListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cpu.AddTrapListener(l)
}

// SetSpeakerListener registers l for speaker bit changes.
func (c *Computer) SetSpeakerListener(l device.SpeakerListener) {
	c.sel1.SetSpeakerListener(l)
}

// SetTapeInput drives the tape input line.
func (c *Computer) SetTapeInput(level bool) { c.sel1.SetTapeInput(level) }

// KeyEvent delivers a key press or release.
func (c *Computer) KeyEvent(code int, isAR2, pressed bool) {
	c.keyboard.HandleKeyCode(c.Time(), code, isAR2, pressed)
}

// StopKey presses the STOP key.
func (c *Computer) StopKey() { c.keyboard.HandleStopKey() }

var errNoFloppy = errors.New("computer: configuration has no floppy controller")

// MountFloppy mounts image in drive (floppy.A to floppy.D).
func (c *Computer) MountFloppy(drive int, image disk.Image, readOnly bool) error {
	if c.floppy == nil {
		return errNoFloppy
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.floppy.Mount(drive, image, readOnly)
}

// UnmountFloppy writes back and closes the image in drive.
func (c *Computer) UnmountFloppy(drive int) error {
	if c.floppy == nil {
		return errNoFloppy
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.floppy.Unmount(drive)
}

// AttachDisk attaches image as the hard disk at position (ide.Master or
// ide.Slave).
func (c *Computer) AttachDisk(position int, image disk.Image) error {
	if c.ide == nil {
		return errors.New("computer: configuration has no IDE controller")
	}
	d, err := ide.NewImageDrive(image)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.ide.Detach(position).(io.Closer); ok {
		if err := old.Close(); err != nil {
			logger.Log("computer", err.Error())
		}
	}
	return c.ide.Attach(position, d)
}

// Close writes back every mounted image and releases them.
func (c *Computer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.floppy != nil {
		for d := floppy.A; d <= floppy.D; d++ {
			if err := c.floppy.Unmount(d); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if c.ide != nil {
		for _, p := range []int{ide.Master, ide.Slave} {
			if d, ok := c.ide.Detach(p).(io.Closer); ok {
				if err := d.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

// SaveState stores the complete machine state. Disk images are not part of
// the state; floppy tracks are written back first.
func (c *Computer) SaveState(s *state.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.PutString("computer.config", c.config.Name)
	c.cpu.SaveState(s)
	for _, b := range c.ram {
		b.SaveState(s)
	}
	c.bus.SaveState(s)
}

// RestoreState loads a state saved from the same configuration. Images must
// be mounted again before restoring.
func (c *Computer) RestoreState(s *state.Bundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := s.String("computer.config")
	if !ok {
		return errors.New("computer: state has no configuration")
	}
	if name != c.config.Name {
		return fmt.Errorf("computer: state is for %s, not %s", name, c.config.Name)
	}
	if err := c.cpu.RestoreState(s); err != nil {
		return err
	}
	for _, b := range c.ram {
		if err := b.RestoreState(s); err != nil {
			return err
		}
	}
	if err := c.bus.RestoreState(s); err != nil {
		return err
	}
	c.now.Store(c.cpu.Time())
	return nil
}
