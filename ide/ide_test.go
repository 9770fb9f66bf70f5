package ide

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/state"
	"github.com/matryer/is"
)

type mockDrive struct {
	geo    Geometry
	data   []byte
	reads  []int
	writes []int
}

func newMockDrive(c, h, s int) *mockDrive {
	d := &mockDrive{geo: Geometry{c, h, s}}
	d.data = make([]byte, c*h*s*SectorSize)
	for lba := 0; lba < c*h*s; lba++ {
		for i := 0; i < SectorSize; i += 2 {
			binary.LittleEndian.PutUint16(d.data[lba*SectorSize+i:], uint16(lba))
		}
	}
	return d
}

func (d *mockDrive) NumCylinders() int      { return d.geo.Cylinders }
func (d *mockDrive) NumHeads() int          { return d.geo.Heads }
func (d *mockDrive) NumSectors() int        { return d.geo.Sectors }
func (d *mockDrive) TotalNumSectors() int64 { return int64(len(d.data) / SectorSize) }
func (d *mockDrive) Model() string          { return "MOCK" }
func (d *mockDrive) Serial() string         { return "1" }
func (d *mockDrive) Firmware() string       { return "0" }

func (d *mockDrive) ReadSectors(buf []byte, lba int64) error {
	off := int(lba) * SectorSize
	if off+len(buf) > len(d.data) {
		return fmt.Errorf("read beyond end")
	}
	d.reads = append(d.reads, len(buf)/SectorSize)
	copy(buf, d.data[off:])
	return nil
}

func (d *mockDrive) WriteSectors(buf []byte, lba int64) error {
	off := int(lba) * SectorSize
	if off+len(buf) > len(d.data) {
		return fmt.Errorf("write beyond end")
	}
	d.writes = append(d.writes, len(buf)/SectorSize)
	copy(d.data[off:], buf)
	return nil
}

func newTestController(t *testing.T, d Drive) *Controller {
	t.Helper()
	c := NewController()
	if err := c.Attach(Master, d); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestIdentify(t *testing.T) {
	is := is.New(t)
	const total = 4 * defaultHeads * defaultSectors
	img := disk.NewMemoryImage("test.img", make([]byte, total*SectorSize), false)
	d, err := NewImageDrive(img)
	is.NoErr(err)
	c := newTestController(t, d)

	c.WriteRegister(0, RegDriveHead, 0xA0)
	c.WriteRegister(0, RegCommand, CmdIdentify)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusDSC|StatusDRQ))

	var id [256]uint16
	for i := range id {
		id[i] = c.ReadRegister(int64(i), RegData)
	}
	is.Equal(c.ReadRegister(0, RegStatus)&StatusDRQ, uint16(0))
	is.Equal(int(id[1]), d.NumCylinders())
	is.Equal(int(id[3]), d.NumHeads())
	is.Equal(int(id[6]), d.NumSectors())
	is.Equal(id[1], uint16(4))
	is.Equal(id[3], uint16(16))
	is.Equal(id[6], uint16(63))
	is.Equal(int64(id[60])|int64(id[61])<<16, d.TotalNumSectors())
	is.Equal(id[47]&0xff, uint16(maxMultipleSectors))
	is.Equal(id[49]&(1<<9), uint16(1<<9))
	is.Equal(id[27], uint16('B')<<8|'K') // "BK TEST"
	is.Equal(id[29], uint16('E')<<8|'S')
	is.Equal(id[46], uint16(' ')<<8|' ')
	is.Equal(c.LastActivity(Master), int64(255))
}

func TestWriteMultiple(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(10, 4, 25)
	c := newTestController(t, d)

	c.WriteRegister(0, RegSectorCount, 4)
	c.WriteRegister(0, RegCommand, CmdSetMultiple)
	is.Equal(c.ReadRegister(0, RegStatus)&StatusERR, uint16(0))

	c.WriteRegister(0, RegSectorCount, 5)
	c.WriteRegister(0, RegSectorNumber, 10)
	c.WriteRegister(0, RegCylinderLow, 0)
	c.WriteRegister(0, RegCylinderHigh, 0)
	c.WriteRegister(0, RegDriveHead, 0xE0) // LBA
	c.WriteRegister(0, RegCommand, CmdWriteMultiple)
	is.True(c.ReadRegister(0, RegStatus)&StatusDRQ != 0)

	for i := 0; i < 4*256; i++ {
		c.WriteRegister(0, RegData, 0125000+uint16(i/256))
	}
	is.Equal(d.writes, []int{4})
	is.True(c.ReadRegister(0, RegStatus)&StatusDRQ != 0)
	is.Equal(c.ReadRegister(0, RegSectorCount), uint16(1))

	for i := 0; i < 256; i++ {
		c.WriteRegister(0, RegData, 0125004)
	}
	is.Equal(d.writes, []int{4, 1})
	is.Equal(c.ReadRegister(0, RegSectorCount), uint16(0))
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusDSC))
	is.Equal(c.ReadRegister(0, RegSectorNumber), uint16(15))

	for s := 0; s < 5; s++ {
		is.Equal(binary.LittleEndian.Uint16(d.data[(10+s)*SectorSize:]), uint16(0125000+s))
	}
	is.Equal(binary.LittleEndian.Uint16(d.data[15*SectorSize:]), uint16(15)) // untouched

	// further data writes are ignored
	c.WriteRegister(0, RegData, 0)
	is.Equal(len(d.writes), 2)
}

func TestWriteMultipleWithoutSetMultiple(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(10, 4, 25))
	c.WriteRegister(0, RegSectorCount, 2)
	c.WriteRegister(0, RegCommand, CmdWriteMultiple)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusERR))
	is.Equal(c.ReadRegister(0, RegError), uint16(ErrorABRT))
}

func TestReadSectorsCHS(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(2, 4, 8)
	c := newTestController(t, d)

	c.WriteRegister(0, RegSectorCount, 2)
	c.WriteRegister(0, RegSectorNumber, 3)
	c.WriteRegister(0, RegCylinderLow, 1)
	c.WriteRegister(0, RegCylinderHigh, 0)
	c.WriteRegister(0, RegDriveHead, 0xA2)
	c.WriteRegister(0, RegCommand, CmdReadSectors)
	is.True(c.ReadRegister(0, RegStatus)&StatusDRQ != 0)

	for i := 0; i < 256; i++ {
		is.Equal(c.ReadRegister(0, RegData), uint16(50)) // (1*4+2)*8 + 3-1
	}
	for i := 0; i < 256; i++ {
		is.Equal(c.ReadRegister(0, RegData), uint16(51))
	}
	is.Equal(d.reads, []int{1, 1})
	is.Equal(c.ReadRegister(0, RegStatus)&StatusDRQ, uint16(0))
	is.Equal(c.ReadRegister(0, RegSectorNumber), uint16(5))
	is.Equal(c.ReadRegister(0, RegCylinderLow), uint16(1))
	is.Equal(c.ReadRegister(0, RegDriveHead)&0x0f, uint16(2))
	is.Equal(c.ReadRegister(0, RegData), uint16(0))
}

func TestReadMultiple(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(2, 4, 8)
	c := newTestController(t, d)
	c.WriteRegister(0, RegSectorCount, 2)
	c.WriteRegister(0, RegCommand, CmdSetMultiple)
	c.WriteRegister(0, RegSectorCount, 3)
	c.WriteRegister(0, RegSectorNumber, 0)
	c.WriteRegister(0, RegDriveHead, 0xE0)
	c.WriteRegister(0, RegCommand, CmdReadMultiple)
	for i := 0; i < 3*256; i++ {
		is.Equal(c.ReadRegister(0, RegData), uint16(i/256))
	}
	is.Equal(d.reads, []int{2, 1})
	is.Equal(c.ReadRegister(0, RegStatus)&StatusDRQ, uint16(0))
}

func TestReadBeyondEnd(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(1, 1, 4))
	c.WriteRegister(0, RegSectorCount, 1)
	c.WriteRegister(0, RegSectorNumber, 9)
	c.WriteRegister(0, RegDriveHead, 0xE0)
	c.WriteRegister(0, RegCommand, CmdReadSectors)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusERR))
	is.Equal(c.ReadRegister(0, RegError), uint16(ErrorABRT))
}

func TestUnsupportedCommand(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(2, 4, 8))
	c.WriteRegister(0, RegCommand, 0xFF)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusERR))
	is.Equal(c.ReadRegister(0, RegError), uint16(ErrorABRT))

	// the controller keeps working
	c.WriteRegister(0, RegCommand, CmdSeek)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusDSC))

	c.WriteRegister(0, RegSectorCount, 3)
	c.WriteRegister(0, RegCommand, CmdSetMultiple)
	is.Equal(c.ReadRegister(0, RegError), uint16(ErrorABRT))
}

func TestCommandsWithoutData(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(2, 4, 8))
	for _, cmd := range []byte{CmdRecalibrate, CmdRecalibrate + 5, CmdInitDriveParams, CmdVerify, CmdFlushCache, CmdIdle, CmdStandbyImm} {
		c.WriteRegister(0, RegCommand, uint16(cmd))
		is.Equal(c.ReadRegister(0, RegStatus)&(StatusERR|StatusDRQ|StatusBSY), uint16(0))
		is.True(c.ReadRegister(0, RegStatus)&StatusDRDY != 0)
	}

	c.WriteRegister(0, RegCommand, CmdCheckPowerMode)
	is.Equal(c.ReadRegister(0, RegSectorCount), uint16(0xff))

	c.WriteRegister(0, RegSectorCount, 7)
	c.WriteRegister(0, RegCylinderLow, 7)
	c.WriteRegister(0, RegCommand, CmdExecDiagnostic)
	is.Equal(c.ReadRegister(0, RegSectorCount), uint16(1))
	is.Equal(c.ReadRegister(0, RegSectorNumber), uint16(1))
	is.Equal(c.ReadRegister(0, RegCylinderLow), uint16(0))
	is.Equal(c.ReadRegister(0, RegError), uint16(1))
}

func TestNoSlave(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(2, 4, 8))
	c.WriteRegister(0, RegDriveHead, 0xB0)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(0))
	c.WriteRegister(0, RegCommand, CmdIdentify)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(0))
	is.Equal(c.ReadAltStatus(), uint16(0))

	c.WriteRegister(0, RegDriveHead, 0xA0)
	is.Equal(c.ReadRegister(0, RegStatus), uint16(StatusDRDY|StatusDSC))
}

func TestAttachDetach(t *testing.T) {
	is := is.New(t)
	c := NewController()
	d := newMockDrive(2, 4, 8)
	is.True(c.Attach(2, d) != nil)
	is.NoErr(c.Attach(Slave, d))
	is.Equal(c.Drive(Slave), Drive(d))
	is.Equal(c.Drive(Master), nil)
	is.Equal(c.Detach(Slave), Drive(d))
	is.Equal(c.Drive(Slave), nil)
}

func TestSoftwareReset(t *testing.T) {
	is := is.New(t)
	c := newTestController(t, newMockDrive(2, 4, 8))
	c.WriteRegister(0, RegSectorCount, 1)
	c.WriteRegister(0, RegCommand, CmdReadSectors)
	is.True(c.ReadAltStatus()&StatusDRQ != 0)

	c.WriteDeviceControl(DeviceControlSRST)
	is.True(c.ReadAltStatus()&StatusBSY != 0)
	c.WriteDeviceControl(0)
	is.Equal(c.ReadAltStatus(), uint16(StatusDRDY|StatusDSC))
	is.Equal(c.ReadRegister(0, RegSectorCount), uint16(1))
	is.Equal(c.ReadRegister(0, RegData), uint16(0))
}

func TestAltProGeometry(t *testing.T) {
	is := is.New(t)
	const cyl, heads, sectors = 10, 4, 17
	data := make([]byte, cyl*heads*sectors*SectorSize)
	put := func(off int, v uint16) { binary.LittleEndian.PutUint16(data[off:], v) }
	put(altProCylinders, cyl)
	put(altProHeads, heads)
	put(altProSectors, sectors)
	put(0776, uint16(altProChecksum-altProSeed-cyl-heads-sectors))

	d, err := NewImageDrive(disk.NewMemoryImage("altpro.img", data, false))
	is.NoErr(err)
	is.Equal(d.NumCylinders(), cyl)
	is.Equal(d.NumHeads(), heads)
	is.Equal(d.NumSectors(), sectors)
	is.Equal(d.TotalNumSectors(), int64(cyl*heads*sectors))

	put(0776, 0)
	d, err = NewImageDrive(disk.NewMemoryImage("plain.img", data, false))
	is.NoErr(err)
	is.Equal(d.NumHeads(), defaultHeads)
	is.Equal(d.NumSectors(), defaultSectors)
	is.Equal(d.NumCylinders(), 1)
}

func TestDefaultGeometry(t *testing.T) {
	is := is.New(t)
	is.Equal(DefaultGeometry(16*63*100), Geometry{100, 16, 63})
	is.Equal(DefaultGeometry(1<<30).Cylinders, maxDefaultCylinders)
	is.Equal(DefaultGeometry(10).Cylinders, 1)
}

func TestImageDriveBounds(t *testing.T) {
	is := is.New(t)
	_, err := NewImageDrive(disk.NewMemoryImage("empty.img", make([]byte, 100), false))
	is.True(err != nil)

	d, err := NewImageDrive(disk.NewMemoryImage("two.img", make([]byte, 2*SectorSize), false))
	is.NoErr(err)
	buf := make([]byte, SectorSize)
	is.NoErr(d.ReadSectors(buf, 1))
	is.True(d.ReadSectors(buf, 2) != nil)
	is.True(d.WriteSectors(make([]byte, 2*SectorSize), 1) != nil)
}

func TestSmkController(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(2, 4, 8)
	smk := NewSmkController(newTestController(t, d))
	is.Equal(len(smk.Addresses()), 9)

	v, ok := smk.Read(0, SmkStatusAddress)
	is.True(ok)
	is.Equal(v, ^uint16(StatusDRDY|StatusDSC))

	smk.Write(0, false, SmkDataAddress-2*RegSectorCount, ^uint16(1))
	smk.Write(0, false, SmkDataAddress-2*RegSectorNumber, ^uint16(7))
	smk.Write(0, false, SmkDataAddress-2*RegDriveHead, ^uint16(0xE0))
	smk.Write(0, true, SmkStatusAddress, ^uint16(CmdReadSectors))
	v, _ = smk.Read(0, SmkDeviceControlAddress)
	is.True(^v&StatusDRQ != 0)
	v, _ = smk.Read(0, SmkDataAddress)
	is.Equal(^v, uint16(7))

	smk.Init(0, false)
	v, _ = smk.Read(0, SmkDataAddress)
	is.Equal(^v, uint16(7))
	smk.Init(0, true)
	v, _ = smk.Read(0, SmkStatusAddress)
	is.Equal(v, ^uint16(StatusDRDY|StatusDSC))
}

func TestSaveRestore(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(2, 4, 8)
	c := newTestController(t, d)
	c.WriteRegister(0, RegSectorCount, 2)
	c.WriteRegister(0, RegSectorNumber, 4)
	c.WriteRegister(0, RegDriveHead, 0xE0)
	c.WriteRegister(0, RegCommand, CmdReadSectors)
	for i := 0; i < 100; i++ {
		c.ReadRegister(0, RegData)
	}
	s := state.New()
	c.SaveState(s)

	other := newTestController(t, d)
	is.NoErr(other.RestoreState(s))
	for i := 100; i < 256; i++ {
		is.Equal(other.ReadRegister(0, RegData), uint16(4))
	}
	is.Equal(other.ReadRegister(0, RegData), uint16(5))

	is.True(other.RestoreState(state.New()) != nil)
}

func TestRestoreInvalidState(t *testing.T) {
	is := is.New(t)
	d := newMockDrive(2, 4, 8)
	c := newTestController(t, d)
	c.WriteRegister(0, RegSectorCount, 2)
	c.WriteRegister(0, RegSectorNumber, 4)
	c.WriteRegister(0, RegDriveHead, 0xE0)
	c.WriteRegister(0, RegCommand, CmdReadSectors)
	for i := 0; i < 10; i++ {
		c.ReadRegister(0, RegData)
	}

	for _, bad := range []map[string]int{
		{"ide.master.ptr": 9000, "ide.master.end": 100000, "ide.master.status": StatusDRQ},
		{"ide.master.ptr": 3},
		{"ide.master.req": 64},
		{"ide.master.nsector": 257},
		{"ide.master.endfunc": 9},
		{"ide.slave.mult": 3},
		{"ide.current": 2},
	} {
		s := state.New()
		c.SaveState(s)
		for k, v := range bad {
			s.PutInt(k, v)
		}
		is.True(c.RestoreState(s) != nil)
	}

	// the transfer in progress is untouched
	for i := 10; i < 256; i++ {
		is.Equal(c.ReadRegister(0, RegData), uint16(4))
	}
	is.Equal(c.ReadRegister(0, RegData), uint16(5))

	is.Equal(c.LastActivity(5), int64(0))
	is.Equal(c.LastActivity(-1), int64(0))
}
