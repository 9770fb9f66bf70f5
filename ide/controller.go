package ide

import (
	"fmt"
	"sync"

	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/state"
)

// Interface indexes.
const (
	Master = iota
	Slave
)

// Controller is an ATA channel with two drive positions. Task file writes go
// to both positions; reads and commands go to the one selected by the
// drive/head register.
type Controller struct {
	mu     sync.Mutex
	ifs    [2]iface
	cur    int
	devCtl byte
}

// NewController returns a controller with no drives attached.
func NewController() *Controller {
	c := &Controller{}
	for i := range c.ifs {
		c.ifs[i].index = i
		c.ifs[i].reset()
	}
	return c
}

// Attach connects d at position i, replacing any drive already there.
func (c *Controller) Attach(i int, d Drive) error {
	if i != Master && i != Slave {
		return fmt.Errorf("ide: no interface %d", i)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.ifs[i]
	s.drive = d
	s.reset()
	logger.Logf("ide", "%s: attached %q, %d/%d/%d, %d sectors", s.name(), d.Model(),
		d.NumCylinders(), d.NumHeads(), d.NumSectors(), d.TotalNumSectors())
	return nil
}

// Detach disconnects the drive at position i and returns it.
func (c *Controller) Detach(i int) Drive {
	if i != Master && i != Slave {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.ifs[i]
	d := s.drive
	s.drive = nil
	s.reset()
	return d
}

// Drive returns the drive at position i, or nil.
func (c *Controller) Drive(i int) Drive {
	if i != Master && i != Slave {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ifs[i].drive
}

// LastActivity returns the cpu time of the last data transfer at position i.
func (c *Controller) LastActivity(i int) int64 {
	if i != Master && i != Slave {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ifs[i].lastTime
}

// Reset performs a hardware reset of both positions.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.cur = Master
	for i := range c.ifs {
		c.ifs[i].sel = 0
		c.ifs[i].reset()
	}
}

// ReadRegister returns task file register reg of the selected position.
func (c *Controller) ReadRegister(cpuTime int64, reg int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.ifs[c.cur]
	if reg == RegData {
		return s.readData(cpuTime)
	}
	if s.drive == nil && reg != RegDriveHead {
		return 0
	}
	switch reg {
	case RegError:
		return uint16(s.err)
	case RegSectorCount:
		return uint16(s.nsector & 0xff)
	case RegSectorNumber:
		return uint16(s.sector)
	case RegCylinderLow:
		return uint16(s.lcyl)
	case RegCylinderHigh:
		return uint16(s.hcyl)
	case RegDriveHead:
		return uint16(s.sel)
	case RegStatus:
		return uint16(s.status)
	}
	return 0
}

// WriteRegister stores value in task file register reg, or executes a
// command when reg is RegCommand.
func (c *Controller) WriteRegister(cpuTime int64, reg int, value uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := byte(value)
	switch reg {
	case RegData:
		c.ifs[c.cur].writeData(cpuTime, value)
	case RegFeature:
		for i := range c.ifs {
			c.ifs[i].feature = b
		}
	case RegSectorCount:
		for i := range c.ifs {
			c.ifs[i].nsector = int(b)
		}
	case RegSectorNumber:
		for i := range c.ifs {
			c.ifs[i].sector = b
		}
	case RegCylinderLow:
		for i := range c.ifs {
			c.ifs[i].lcyl = b
		}
	case RegCylinderHigh:
		for i := range c.ifs {
			c.ifs[i].hcyl = b
		}
	case RegDriveHead:
		for i := range c.ifs {
			c.ifs[i].sel = b | 0xa0
		}
		c.cur = Master
		if b&driveHeadSlave != 0 {
			c.cur = Slave
		}
	case RegCommand:
		c.ifs[c.cur].command(b)
	}
}

// ReadAltStatus returns the status of the selected position without side
// effects.
func (c *Controller) ReadAltStatus() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.ifs[c.cur]
	if s.drive == nil {
		return 0
	}
	return uint16(s.status)
}

// WriteDeviceControl writes the device control register. Raising SRST holds
// both positions busy; dropping it resets them.
func (c *Controller) WriteDeviceControl(value uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := byte(value)
	switch {
	case c.devCtl&DeviceControlSRST == 0 && b&DeviceControlSRST != 0:
		for i := range c.ifs {
			c.ifs[i].status = StatusBSY | StatusDSC
			c.ifs[i].err = 0x01
		}
	case c.devCtl&DeviceControlSRST != 0 && b&DeviceControlSRST == 0:
		for i := range c.ifs {
			s := &c.ifs[i]
			s.reset()
		}
		c.cur = Master
	}
	c.devCtl = b
}

func (c *Controller) SaveState(b *state.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b.PutInt("ide.current", c.cur)
	b.PutInt("ide.devctl", int(c.devCtl))
	for i := range c.ifs {
		c.ifs[i].saveState(b)
	}
}

func (c *Controller) RestoreState(b *state.Bundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := state.NewReader(b)
	cur := r.Int("ide.current")
	devCtl := r.Int("ide.devctl")
	if err := r.Err(); err != nil {
		return err
	}
	if cur != Master && cur != Slave {
		return fmt.Errorf("ide: bad current interface %d", cur)
	}
	var ifs [2]iface
	for i := range c.ifs {
		var err error
		if ifs[i], err = c.ifs[i].restoreState(b); err != nil {
			return err
		}
	}
	c.cur, c.devCtl = cur, byte(devCtl)
	c.ifs = ifs
	return nil
}
