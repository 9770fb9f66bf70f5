package floppy

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/logger"
)

// Drive letters.
const (
	A = iota
	B
	C
	D

	numDrives = 4
)

// drive is one of the four drives. The track under the head is held in buf
// and written back to the image only when the head leaves it.
type drive struct {
	letter    byte
	image     disk.Image
	readOnly  bool
	track     int
	side      int
	lastTrack int

	buf   trackBuffer
	dirty bool
}

func (d *drive) isMounted() bool { return d.image != nil }

func sectorOffset(track, side, number int) int64 {
	return int64(((track*Sides+side)*SectorsPerTrack + number - 1) * BytesPerSector)
}

// load builds the track under the head from the image. A short image reads
// as zero filled sectors.
func (d *drive) load() error {
	var sectors [SectorsPerTrack][BytesPerSector]byte
	for s := range sectors {
		_, err := d.image.ReadAt(sectors[s][:], sectorOffset(d.track, d.side, s+1))
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("floppy: drive %c: read track %d side %d: %w", d.letter, d.track, d.side, err)
		}
	}
	d.buf.format(d.track, d.side, &sectors)
	d.dirty = false
	return nil
}

// flush writes every valid sector of a modified track back to the image.
func (d *drive) flush() error {
	if !d.dirty || !d.isMounted() {
		return nil
	}
	d.dirty = false
	if d.readOnly {
		return nil
	}
	for _, s := range d.buf.sectors(func(pos int, reason string) {
		logger.Logf("floppy", "drive %c track %d side %d word %d: %s", d.letter, d.track, d.side, pos, reason)
	}) {
		if s.track != d.track || s.side != d.side || s.number < 1 || s.number > SectorsPerTrack {
			logger.Logf("floppy", "drive %c track %d side %d: skipping sector %d/%d/%d", d.letter, d.track, d.side, s.track, s.side, s.number)
			continue
		}
		if _, err := d.image.WriteAt(s.data[:], sectorOffset(s.track, s.side, s.number)); err != nil {
			return fmt.Errorf("floppy: drive %c: write sector %d/%d/%d: %w", d.letter, s.track, s.side, s.number, err)
		}
	}
	return nil
}

// seek moves the head, writing back the track it leaves.
func (d *drive) seek(track, side int) {
	if track < 0 {
		track = 0
	}
	if track > d.lastTrack {
		track = d.lastTrack
	}
	if track == d.track && side == d.side {
		return
	}
	if err := d.flush(); err != nil {
		logger.Log("floppy", err.Error())
	}
	d.track, d.side = track, side
	if !d.isMounted() {
		return
	}
	if err := d.load(); err != nil {
		logger.Log("floppy", err.Error())
	}
}

func (d *drive) mount(image disk.Image, readOnly bool) error {
	if err := d.unmount(); err != nil {
		logger.Log("floppy", err.Error())
	}
	lastTrack := int(image.Length()/bytesPerCylinder) - 1
	switch {
	case lastTrack < 0:
		return fmt.Errorf("floppy: drive %c: %s: image too small (%d bytes)", d.letter, image.Name(), image.Length())
	case lastTrack >= MaxTracks:
		return fmt.Errorf("floppy: drive %c: %s: image too large (%d bytes)", d.letter, image.Name(), image.Length())
	}
	d.image = image
	d.readOnly = readOnly || image.IsReadOnly()
	d.lastTrack = lastTrack
	if d.track > lastTrack {
		d.track = lastTrack
	}
	if err := d.load(); err != nil {
		d.image = nil
		return err
	}
	logger.Logf("floppy", "drive %c: mounted %s, %d tracks", d.letter, image.Name(), lastTrack+1)
	return nil
}

func (d *drive) unmount() error {
	if !d.isMounted() {
		return nil
	}
	err := d.flush()
	if cerr := d.image.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("floppy: drive %c: close %s: %w", d.letter, d.image.Name(), cerr)
	}
	logger.Logf("floppy", "drive %c: unmounted %s", d.letter, d.image.Name())
	d.image = nil
	d.dirty = false
	return err
}
