package ide

import (
	"fmt"

	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/state"
)

// endTransfer selects what happens when the data buffer has been consumed.
type endTransfer int

const (
	endStop        endTransfer = iota // the command has finished
	endSectorRead                     // load the next block
	endSectorWrite                    // commit the block and accept the next
	endForceStop                      // abandon the rest of the command
)

// iface is one of the two drive positions on the channel. The task file is
// shared by both positions; each keeps its own copy and its own transfer
// state.
type iface struct {
	index int
	drive Drive

	feature byte
	err     byte
	nsector int // sectors left in the command, 0-256
	sector  byte
	lcyl    byte
	hcyl    byte
	sel     byte
	status  byte

	multSectors  int // READ/WRITE MULTIPLE block size, 0 until SET MULTIPLE
	reqNbSectors int // sectors per block of the current command

	buf      [maxMultipleSectors * SectorSize]byte
	dataPtr  int
	dataEnd  int
	endFunc  endTransfer
	lastTime int64 // cpu time of the last data transfer
}

func (s *iface) name() string {
	if s.index == 0 {
		return "master"
	}
	return "slave"
}

func (s *iface) reset() {
	s.feature = 0
	s.multSectors = 0
	s.reqNbSectors = 0
	s.transferStop()
	if s.drive == nil {
		s.status = 0
	} else {
		s.status = StatusDRDY | StatusDSC
	}
	s.setSignature()
}

// setSignature loads the ATA device signature into the task file.
func (s *iface) setSignature() {
	s.sel &= 0xf0
	s.nsector = 1
	s.sector = 1
	s.lcyl = 0
	s.hcyl = 0
	s.err = 0x01
}

// lba returns the address of the current sector from the task file.
func (s *iface) lba() int64 {
	if s.sel&driveHeadLBA != 0 {
		return int64(s.sel&0x0f)<<24 | int64(s.hcyl)<<16 | int64(s.lcyl)<<8 | int64(s.sector)
	}
	heads, sectors := int64(s.drive.NumHeads()), int64(s.drive.NumSectors())
	cyl := int64(s.hcyl)<<8 | int64(s.lcyl)
	return (cyl*heads+int64(s.sel&0x0f))*sectors + int64(s.sector) - 1
}

// setLBA stores n as the current sector in the addressing mode in use.
func (s *iface) setLBA(n int64) {
	if s.sel&driveHeadLBA != 0 {
		s.sel = s.sel&0xf0 | byte(n>>24)&0x0f
		s.hcyl = byte(n >> 16)
		s.lcyl = byte(n >> 8)
		s.sector = byte(n)
		return
	}
	heads, sectors := int64(s.drive.NumHeads()), int64(s.drive.NumSectors())
	cyl := n / (heads * sectors)
	r := n % (heads * sectors)
	s.hcyl = byte(cyl >> 8)
	s.lcyl = byte(cyl)
	s.sel = s.sel&0xf0 | byte(r/sectors)&0x0f
	s.sector = byte(r%sectors + 1)
}

func (s *iface) transferStart(size int, end endTransfer) {
	s.dataPtr = 0
	s.dataEnd = size
	s.endFunc = end
	if s.status&StatusERR == 0 {
		s.status |= StatusDRQ
	}
}

func (s *iface) transferStop() {
	s.endFunc = endStop
	s.dataPtr = 0
	s.dataEnd = 0
	s.status &^= StatusDRQ
}

// forceStop ends the command in flight without touching the drive.
func (s *iface) forceStop() {
	s.endFunc = endForceStop
	s.endOfTransfer()
}

func (s *iface) abort() {
	s.status = StatusDRDY | StatusERR
	s.err = ErrorABRT
}

func (s *iface) endOfTransfer() {
	switch s.endFunc {
	case endSectorRead:
		s.sectorRead()
	case endSectorWrite:
		s.sectorWrite()
	case endForceStop:
		s.transferStop()
		s.status &^= StatusBSY
	default:
		s.transferStop()
	}
}

// sectorRead loads the next block of a read command into the buffer.
func (s *iface) sectorRead() {
	s.status = StatusDRDY | StatusDSC
	s.err = 0
	n := s.nsector
	if n == 0 {
		s.transferStop()
		return
	}
	if n > s.reqNbSectors {
		n = s.reqNbSectors
	}
	lba := s.lba()
	if err := s.drive.ReadSectors(s.buf[:n*SectorSize], lba); err != nil {
		logger.Logf("ide", "%s: %v", s.name(), err)
		s.abort()
		s.forceStop()
		return
	}
	s.setLBA(lba + int64(n))
	s.nsector -= n
	s.transferStart(n*SectorSize, endSectorRead)
}

// sectorWrite commits the block in the buffer and prepares for the next.
func (s *iface) sectorWrite() {
	n := s.nsector
	if n > s.reqNbSectors {
		n = s.reqNbSectors
	}
	lba := s.lba()
	if err := s.drive.WriteSectors(s.buf[:n*SectorSize], lba); err != nil {
		logger.Logf("ide", "%s: %v", s.name(), err)
		s.abort()
		s.forceStop()
		return
	}
	s.status = StatusDRDY | StatusDSC
	s.nsector -= n
	s.setLBA(lba + int64(n))
	if s.nsector == 0 {
		s.transferStop()
		return
	}
	n = s.nsector
	if n > s.reqNbSectors {
		n = s.reqNbSectors
	}
	s.transferStart(n*SectorSize, endSectorWrite)
}

// command executes cmd against the attached drive.
func (s *iface) command(cmd byte) {
	if s.drive == nil {
		return
	}
	if s.status&StatusDRQ != 0 {
		logger.Logf("ide", "%s: command %#02x abandons transfer at %d/%d", s.name(), cmd, s.dataPtr, s.dataEnd)
		s.forceStop()
	}
	if s.nsector == 0 {
		s.nsector = 256
	}
	switch {
	case cmd == CmdIdentify:
		s.identify()
		s.status = StatusDRDY | StatusDSC
		s.transferStart(SectorSize, endStop)

	case cmd == CmdReadSectors || cmd == CmdReadSectorsNR:
		s.reqNbSectors = 1
		s.sectorRead()

	case cmd == CmdReadMultiple:
		if s.multSectors == 0 {
			s.abort()
			return
		}
		s.reqNbSectors = s.multSectors
		s.sectorRead()

	case cmd == CmdWriteSectors || cmd == CmdWriteSectorsNR:
		s.err = 0
		s.status = StatusDRDY | StatusDSC
		s.reqNbSectors = 1
		s.transferStart(SectorSize, endSectorWrite)

	case cmd == CmdWriteMultiple:
		if s.multSectors == 0 {
			s.abort()
			return
		}
		s.err = 0
		s.status = StatusDRDY | StatusDSC
		s.reqNbSectors = s.multSectors
		n := s.nsector
		if n > s.reqNbSectors {
			n = s.reqNbSectors
		}
		s.transferStart(n*SectorSize, endSectorWrite)

	case cmd == CmdSetMultiple:
		n := s.nsector & 0xff
		if n > maxMultipleSectors || n&(n-1) != 0 {
			s.abort()
			return
		}
		s.multSectors = n
		s.status = StatusDRDY | StatusDSC

	case cmd == CmdExecDiagnostic:
		s.setSignature()
		s.status = StatusDRDY | StatusDSC

	case cmd == CmdCheckPowerMode || cmd == CmdCheckPowerMode2:
		s.nsector = 0xff
		s.status = StatusDRDY

	case cmd&0xf0 == CmdRecalibrate, cmd == CmdSeek, cmd == CmdVerify, cmd == CmdVerifyNR,
		cmd == CmdInitDriveParams:
		s.status = StatusDRDY | StatusDSC

	case cmd == CmdFlushCache,
		cmd == CmdStandby, cmd == CmdStandbyImm, cmd == CmdIdle, cmd == CmdIdleImm,
		cmd == CmdStandby2, cmd == CmdStandbyImm2, cmd == CmdIdle2, cmd == CmdIdleImm2:
		s.status = StatusDRDY

	default:
		logger.Logf("ide", "%s: unsupported command %#02x", s.name(), cmd)
		s.abort()
	}
}

// identify fills the buffer with the IDENTIFY DEVICE block.
func (s *iface) identify() {
	for i := range s.buf[:SectorSize] {
		s.buf[i] = 0
	}
	put := func(word int, v uint16) {
		s.buf[2*word] = byte(v)
		s.buf[2*word+1] = byte(v >> 8)
	}
	d := s.drive
	c, h, sec := d.NumCylinders(), d.NumHeads(), d.NumSectors()
	total := d.TotalNumSectors()
	chs := int64(c) * int64(h) * int64(sec)

	put(0, 0x0040) // fixed disk
	put(1, uint16(c))
	put(3, uint16(h))
	put(4, uint16(SectorSize*sec))
	put(5, SectorSize)
	put(6, uint16(sec))
	s.putString(10, 20, d.Serial())
	put(20, 3) // dual ported buffer
	put(21, SectorSize)
	put(22, 4)
	s.putString(23, 8, d.Firmware())
	s.putString(27, 40, d.Model())
	put(47, 0x8000|maxMultipleSectors)
	put(48, 1)
	put(49, 1<<9) // LBA
	put(51, 0x200)
	put(52, 0x200)
	put(53, 1)
	put(54, uint16(c))
	put(55, uint16(h))
	put(56, uint16(sec))
	put(57, uint16(chs))
	put(58, uint16(chs>>16))
	if s.multSectors != 0 {
		put(59, 0x100|uint16(s.multSectors))
	}
	put(60, uint16(total))
	put(61, uint16(total>>16))
}

// putString stores str space padded in the byte swapped ATA string layout.
func (s *iface) putString(word, length int, str string) {
	b := s.buf[2*word : 2*word+length]
	for i := range b {
		c := byte(' ')
		if i < len(str) {
			c = str[i]
		}
		b[i^1] = c
	}
}

func (s *iface) readData(cpuTime int64) uint16 {
	if s.status&StatusDRQ == 0 || s.dataPtr >= s.dataEnd {
		return 0
	}
	v := uint16(s.buf[s.dataPtr]) | uint16(s.buf[s.dataPtr+1])<<8
	s.dataPtr += 2
	s.lastTime = cpuTime
	if s.dataPtr >= s.dataEnd {
		s.endOfTransfer()
	}
	return v
}

func (s *iface) writeData(cpuTime int64, v uint16) {
	if s.status&StatusDRQ == 0 || s.dataPtr >= s.dataEnd {
		return
	}
	s.buf[s.dataPtr] = byte(v)
	s.buf[s.dataPtr+1] = byte(v >> 8)
	s.dataPtr += 2
	s.lastTime = cpuTime
	if s.dataPtr >= s.dataEnd {
		s.endOfTransfer()
	}
}

func (s *iface) key(k string) string { return fmt.Sprintf("ide.%s.%s", s.name(), k) }

func (s *iface) saveState(b *state.Bundle) {
	b.PutInt(s.key("feature"), int(s.feature))
	b.PutInt(s.key("error"), int(s.err))
	b.PutInt(s.key("nsector"), s.nsector)
	b.PutInt(s.key("sector"), int(s.sector))
	b.PutInt(s.key("lcyl"), int(s.lcyl))
	b.PutInt(s.key("hcyl"), int(s.hcyl))
	b.PutInt(s.key("select"), int(s.sel))
	b.PutInt(s.key("status"), int(s.status))
	b.PutInt(s.key("mult"), s.multSectors)
	b.PutInt(s.key("req"), s.reqNbSectors)
	b.PutInt(s.key("ptr"), s.dataPtr)
	b.PutInt(s.key("end"), s.dataEnd)
	b.PutInt(s.key("endfunc"), int(s.endFunc))
	b.PutBytes(s.key("buf"), s.buf[:])
}

// restoreState returns a copy of s loaded from b. s itself is not changed,
// so a rejected state leaves the position as it was.
func (s *iface) restoreState(b *state.Bundle) (iface, error) {
	r := state.NewReader(b)
	n := *s
	n.feature = byte(r.Int(s.key("feature")))
	n.err = byte(r.Int(s.key("error")))
	n.nsector = r.Int(s.key("nsector"))
	n.sector = byte(r.Int(s.key("sector")))
	n.lcyl = byte(r.Int(s.key("lcyl")))
	n.hcyl = byte(r.Int(s.key("hcyl")))
	n.sel = byte(r.Int(s.key("select")))
	n.status = byte(r.Int(s.key("status")))
	n.multSectors = r.Int(s.key("mult"))
	n.reqNbSectors = r.Int(s.key("req"))
	n.dataPtr = r.Int(s.key("ptr"))
	n.dataEnd = r.Int(s.key("end"))
	n.endFunc = endTransfer(r.Int(s.key("endfunc")))
	buf := r.Bytes(s.key("buf"))
	if err := r.Err(); err != nil {
		return n, err
	}
	switch {
	case len(buf) != len(n.buf):
		return n, fmt.Errorf("ide: %s: bad buffer length %d", s.name(), len(buf))
	case n.dataEnd > len(n.buf) || n.dataPtr > n.dataEnd || n.dataPtr < 0 || n.dataPtr&1 != 0 || n.dataEnd&1 != 0:
		return n, fmt.Errorf("ide: %s: bad transfer state %d/%d", s.name(), n.dataPtr, n.dataEnd)
	case n.nsector < 0 || n.nsector > 256:
		return n, fmt.Errorf("ide: %s: bad sector count %d", s.name(), n.nsector)
	case n.multSectors < 0 || n.multSectors > maxMultipleSectors || n.multSectors&(n.multSectors-1) != 0:
		return n, fmt.Errorf("ide: %s: bad multiple count %d", s.name(), n.multSectors)
	case n.reqNbSectors < 0 || n.reqNbSectors > maxMultipleSectors:
		return n, fmt.Errorf("ide: %s: bad block size %d", s.name(), n.reqNbSectors)
	case n.endFunc < endStop || n.endFunc > endForceStop:
		return n, fmt.Errorf("ide: %s: bad end of transfer %d", s.name(), n.endFunc)
	}
	copy(n.buf[:], buf)
	return n, nil
}
