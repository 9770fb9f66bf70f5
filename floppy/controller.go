// Package floppy emulates the BK-0011M floppy disk controller and up to four
// drives.
//
// There is no disk rotation running in the background. The word under the
// head is a function of CPU time alone, and everything that has passed under
// the head since the last register access is worked out when the CPU next
// touches a register.
package floppy

import (
	"fmt"
	"sync"
	"time"

	"github.com/davecheney/bk/clock"
	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/state"
)

const (
	ControlAddress = 0177130
	DataAddress    = 0177132
)

// Control register bits, write.
const (
	ControlDriveA    = 1 << 0
	ControlDriveB    = 1 << 1
	ControlDriveC    = 1 << 2
	ControlDriveD    = 1 << 3
	ControlMotor     = 1 << 4
	ControlSide      = 1 << 5
	ControlDirection = 1 << 6 // towards higher tracks
	ControlStep      = 1 << 7
	ControlGOR       = 1 << 8 // start synchronous read
	ControlWriteMark = 1 << 9
	ControlPrecomp   = 1 << 10
)

// Status register bits, read.
const (
	StatusTrack0       = 1 << 0
	StatusReady        = 1 << 1
	StatusWriteProtect = 1 << 2
	StatusTR           = 1 << 7 // data ready
	StatusCRC          = 1 << 14
	StatusIndex        = 1 << 15
)

const (
	rotationPeriod  = 200 * time.Millisecond
	indexHoleLength = 2 * time.Millisecond
)

// Controller is the floppy controller.
type Controller struct {
	mu sync.Mutex

	ticksPerWord      int64
	ticksPerTrack     int64
	ticksPerIndexHole int64

	drives   [numDrives]drive
	selected int // -1 when no drive is selected
	motor    bool

	// synchronous read
	reading     bool
	markerFound bool
	lastPos     int64 // last head position processed
	markerIdx   int
	dataIdx     int
	tr          bool
	crcOK       bool

	// write
	writing       bool
	lastWritePos  int64
	crcStart      int
	pendingMarker bool
}

// NewController returns a controller for a CPU running at freq, with no
// drive selected and nothing mounted.
func NewController(freq clock.Frequency) *Controller {
	perWord := freq.Ticks(rotationPeriod) / WordsPerTrack
	fc := &Controller{
		ticksPerWord:      perWord,
		ticksPerTrack:     perWord * WordsPerTrack,
		ticksPerIndexHole: freq.Ticks(indexHoleLength),
		selected:          -1,
	}
	for i := range fc.drives {
		fc.drives[i].letter = byte('A' + i)
	}
	return fc
}

// TicksPerWord returns the time one word takes to pass under the head.
func (fc *Controller) TicksPerWord() int64 { return fc.ticksPerWord }

// TicksPerTrack returns the time of one rotation.
func (fc *Controller) TicksPerTrack() int64 { return fc.ticksPerTrack }

// TicksPerIndexHole returns the time the index hole is seen in each rotation.
func (fc *Controller) TicksPerIndexHole() int64 { return fc.ticksPerIndexHole }

// position is the absolute number of words that have passed the head.
func (fc *Controller) position(cpuTime int64) int64 {
	return cpuTime / fc.ticksPerWord
}

// HeadPosition returns the index into the track of the word under the head.
func (fc *Controller) HeadPosition(cpuTime int64) int {
	return int(fc.position(cpuTime) % WordsPerTrack)
}

// IsIndexHole reports whether the index hole is under the sensor.
func (fc *Controller) IsIndexHole(cpuTime int64) bool {
	return cpuTime%fc.ticksPerTrack < fc.ticksPerIndexHole
}

func (fc *Controller) drive() *drive {
	if fc.selected < 0 {
		return nil
	}
	return &fc.drives[fc.selected]
}

func (fc *Controller) Addresses() []uint16 {
	return []uint16{ControlAddress, DataAddress}
}

func (fc *Controller) Init(cpuTime int64, isHardwareReset bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.stop()
	fc.flushAll()
	fc.pendingMarker = false
	fc.crcOK = false
	fc.lastPos = fc.position(cpuTime)
	if isHardwareReset {
		fc.selected = -1
		fc.motor = false
	}
}

// stop abandons any read or write in progress.
func (fc *Controller) stop() {
	fc.reading = false
	fc.markerFound = false
	fc.writing = false
	fc.tr = false
}

func (fc *Controller) flushAll() {
	for i := range fc.drives {
		if err := fc.drives[i].flush(); err != nil {
			logger.Log("floppy", err.Error())
		}
	}
}

func (fc *Controller) Read(cpuTime int64, address uint16) (uint16, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	switch address &^ 1 {
	case ControlAddress:
		return fc.readStatus(cpuTime), true
	case DataAddress:
		return fc.readData(cpuTime), true
	}
	return 0, false
}

func (fc *Controller) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	switch address &^ 1 {
	case ControlAddress:
		fc.writeControl(cpuTime, value)
		return true
	case DataAddress:
		fc.writeData(cpuTime, value)
		return true
	}
	return false
}

// update processes the words that passed under the head since the last
// register access.
func (fc *Controller) update(cpuTime int64) {
	cur := fc.position(cpuTime)
	d := fc.drive()
	if fc.writing {
		// the slot after the last word went by without new data
		if cur-fc.lastWritePos > 1 {
			fc.endWrite()
		}
		return
	}
	if !fc.reading || d == nil || !d.isMounted() {
		fc.lastPos = cur
		return
	}

	from := fc.lastPos + 1
	if cur-from >= WordsPerTrack {
		from = cur - WordsPerTrack + 1
	}
	for p := from; p <= cur; p++ {
		i := int(p % WordsPerTrack)
		if !fc.markerFound {
			if d.buf.isMarker[i] {
				fc.markerFound = true
				fc.markerIdx = i
			}
			continue
		}
		fc.dataIdx = i
		fc.tr = true
		if d.buf.isCRC[i] {
			fc.crcOK = d.buf.crc(fc.markerIdx, i) == d.buf.data[i]
			fc.reading = false
			fc.markerFound = false
			break
		}
	}
	fc.lastPos = cur
}

// endWrite appends the CRC of everything written since the last marker and
// writes the track back.
func (fc *Controller) endWrite() {
	fc.writing = false
	d := fc.drive()
	if d == nil {
		return
	}
	i := int((fc.lastWritePos + 1) % WordsPerTrack)
	d.buf.data[i] = d.buf.crc(fc.crcStart, i)
	d.buf.isMarker[i] = false
	d.buf.isCRC[i] = true
	d.dirty = true
	if err := d.flush(); err != nil {
		logger.Log("floppy", err.Error())
	}
}

func (fc *Controller) readStatus(cpuTime int64) uint16 {
	fc.update(cpuTime)
	var v uint16
	if d := fc.drive(); d != nil {
		if d.track == 0 {
			v |= StatusTrack0
		}
		if d.isMounted() {
			v |= StatusReady
			if d.readOnly {
				v |= StatusWriteProtect
			}
			if fc.IsIndexHole(cpuTime) {
				v |= StatusIndex
			}
		}
	}
	switch {
	case fc.writing:
		if fc.position(cpuTime) >= fc.lastWritePos {
			v |= StatusTR
		}
	case fc.tr:
		v |= StatusTR
	}
	if fc.crcOK {
		v |= StatusCRC
	}
	return v
}

func (fc *Controller) readData(cpuTime int64) uint16 {
	fc.update(cpuTime)
	d := fc.drive()
	if d == nil || !d.isMounted() {
		return 0
	}
	fc.tr = false
	return swap(d.buf.data[fc.dataIdx])
}

func (fc *Controller) writeControl(cpuTime int64, v uint16) {
	fc.update(cpuTime)

	sel := -1
	for i := 0; i < numDrives; i++ {
		if v&(1<<i) != 0 {
			sel = i
			break
		}
	}
	if sel != fc.selected {
		fc.stop()
		if d := fc.drive(); d != nil {
			if err := d.flush(); err != nil {
				logger.Log("floppy", err.Error())
			}
		}
		fc.selected = sel
	}
	fc.motor = v&ControlMotor != 0

	if d := fc.drive(); d != nil {
		track, side := d.track, int(v>>5)&1
		if v&ControlStep != 0 {
			if v&ControlDirection != 0 {
				track++
			} else {
				track--
			}
		}
		if track < 0 {
			track = 0
		}
		if track > d.lastTrack {
			track = d.lastTrack
		}
		if track != d.track || side != d.side {
			fc.stop()
			d.seek(track, side)
		}
	}

	if v&ControlWriteMark != 0 {
		fc.pendingMarker = true
	}
	if v&ControlGOR != 0 {
		if fc.writing {
			fc.endWrite()
		}
		fc.reading = true
		fc.markerFound = false
		fc.tr = false
		fc.crcOK = false
		fc.lastPos = fc.position(cpuTime)
	}
}

func (fc *Controller) writeData(cpuTime int64, value uint16) {
	fc.update(cpuTime)
	fc.reading = false
	fc.markerFound = false
	fc.tr = false

	d := fc.drive()
	if d == nil || !d.isMounted() || d.readOnly {
		return
	}
	// the word lands in the slot after the one under the head
	p := fc.position(cpuTime) + 1
	if !fc.writing {
		fc.writing = true
		fc.crcOK = false
		fc.crcStart = int(p % WordsPerTrack)
	}
	i := int(p % WordsPerTrack)
	d.buf.data[i] = swap(value)
	d.buf.isCRC[i] = false
	d.buf.isMarker[i] = fc.pendingMarker
	if fc.pendingMarker {
		fc.crcStart = i
		fc.pendingMarker = false
	}
	fc.lastWritePos = p
	d.dirty = true
}

// swap converts between media byte order and register byte order.
func swap(w uint16) uint16 { return w<<8 | w>>8 }

// Mount attaches image to drive, replacing any image already there.
func (fc *Controller) Mount(drive int, image disk.Image, readOnly bool) error {
	if drive < 0 || drive >= numDrives {
		return fmt.Errorf("floppy: no drive %d", drive)
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.selected == drive {
		fc.stop()
	}
	return fc.drives[drive].mount(image, readOnly)
}

// Unmount writes back and closes the image in drive.
func (fc *Controller) Unmount(drive int) error {
	if drive < 0 || drive >= numDrives {
		return fmt.Errorf("floppy: no drive %d", drive)
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.selected == drive {
		fc.stop()
	}
	return fc.drives[drive].unmount()
}

// IsMounted reports whether drive has an image.
func (fc *Controller) IsMounted(drive int) bool {
	if drive < 0 || drive >= numDrives {
		return false
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.drives[drive].isMounted()
}

// IsMotorOn reports the state of the motor control bit.
func (fc *Controller) IsMotorOn() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.motor
}

// Position returns the head position of drive.
func (fc *Controller) Position(drive int) (track, side int) {
	if drive < 0 || drive >= numDrives {
		return 0, 0
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	d := &fc.drives[drive]
	return d.track, d.side
}

// Flush writes every modified track back to its image.
func (fc *Controller) Flush() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for i := range fc.drives {
		if err := fc.drives[i].flush(); err != nil {
			return err
		}
	}
	return nil
}

// SaveState writes back modified tracks and records the head positions and
// the controller registers. Images are not part of the state.
func (fc *Controller) SaveState(s *state.Bundle) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.flushAll()
	s.PutInt("floppy.selected", fc.selected)
	s.PutBool("floppy.motor", fc.motor)
	s.PutBool("floppy.reading", fc.reading)
	s.PutBool("floppy.markerFound", fc.markerFound)
	s.PutInt64("floppy.lastPos", fc.lastPos)
	s.PutInt("floppy.markerIdx", fc.markerIdx)
	s.PutInt("floppy.dataIdx", fc.dataIdx)
	s.PutBool("floppy.tr", fc.tr)
	s.PutBool("floppy.crcOK", fc.crcOK)
	s.PutBool("floppy.pendingMarker", fc.pendingMarker)
	for i := range fc.drives {
		d := &fc.drives[i]
		s.PutInt(fmt.Sprintf("floppy.%c.track", d.letter), d.track)
		s.PutInt(fmt.Sprintf("floppy.%c.side", d.letter), d.side)
	}
}

func (fc *Controller) RestoreState(s *state.Bundle) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	r := state.NewReader(s)
	selected := r.Int("floppy.selected")
	motor := r.Bool("floppy.motor")
	reading := r.Bool("floppy.reading")
	markerFound := r.Bool("floppy.markerFound")
	lastPos := r.Int64("floppy.lastPos")
	markerIdx := r.Int("floppy.markerIdx")
	dataIdx := r.Int("floppy.dataIdx")
	tr := r.Bool("floppy.tr")
	crcOK := r.Bool("floppy.crcOK")
	pendingMarker := r.Bool("floppy.pendingMarker")
	var positions [numDrives][2]int
	for i := range fc.drives {
		d := &fc.drives[i]
		positions[i][0] = r.Int(fmt.Sprintf("floppy.%c.track", d.letter))
		positions[i][1] = r.Int(fmt.Sprintf("floppy.%c.side", d.letter))
	}
	if err := r.Err(); err != nil {
		return err
	}
	switch {
	case selected < -1 || selected >= numDrives:
		return fmt.Errorf("floppy: invalid selected drive %d", selected)
	case markerIdx < 0 || markerIdx >= WordsPerTrack || dataIdx < 0 || dataIdx >= WordsPerTrack:
		return fmt.Errorf("floppy: invalid read position %d/%d", markerIdx, dataIdx)
	}
	for i, p := range positions {
		if p[0] < 0 || p[0] >= MaxTracks || p[1] < 0 || p[1] >= Sides {
			return fmt.Errorf("floppy: drive %c: invalid position %d/%d", fc.drives[i].letter, p[0], p[1])
		}
	}

	fc.selected = selected
	fc.motor = motor
	fc.reading = reading
	fc.markerFound = markerFound
	fc.lastPos = lastPos
	fc.markerIdx = markerIdx
	fc.dataIdx = dataIdx
	fc.tr = tr
	fc.crcOK = crcOK
	fc.pendingMarker = pendingMarker
	fc.writing = false
	for i := range fc.drives {
		d := &fc.drives[i]
		if err := d.flush(); err != nil {
			logger.Log("floppy", err.Error())
		}
		d.track, d.side = positions[i][0], positions[i][1]
		if !d.isMounted() {
			continue
		}
		if d.track > d.lastTrack {
			d.track = d.lastTrack
		}
		if err := d.load(); err != nil {
			return err
		}
	}
	return nil
}
