package ide

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/logger"
)

// Drive is a hard disk attached to an interface.
type Drive interface {
	NumCylinders() int
	NumHeads() int
	NumSectors() int
	TotalNumSectors() int64

	// ReadSectors fills buf with len(buf)/SectorSize sectors from lba.
	ReadSectors(buf []byte, lba int64) error
	// WriteSectors writes len(buf)/SectorSize sectors at lba.
	WriteSectors(buf []byte, lba int64) error

	Model() string
	Serial() string
	Firmware() string
}

// Default geometry for images without an AltPro block.
const (
	defaultHeads        = 16
	defaultSectors      = 63
	maxDefaultCylinders = 16383
)

// AltPro geometry block, in the last words of sector 0. The words from
// altProBlock to the end of the sector, added to altProSeed, sum to
// altProChecksum.
const (
	altProBlock     = 0760
	altProCylinders = 0766
	altProHeads     = 0770
	altProSectors   = 0772
	altProSeed      = 012701
	altProChecksum  = 0160000
)

// Geometry is a CHS drive geometry.
type Geometry struct {
	Cylinders, Heads, Sectors int
}

// DefaultGeometry returns the geometry used for an image of total sectors.
func DefaultGeometry(total int64) Geometry {
	c := total / (defaultHeads * defaultSectors)
	if c > maxDefaultCylinders {
		c = maxDefaultCylinders
	}
	if c < 1 {
		c = 1
	}
	return Geometry{Cylinders: int(c), Heads: defaultHeads, Sectors: defaultSectors}
}

// AltProGeometry decodes the geometry block of sector 0. The second value
// is false when the checksum or the geometry is invalid.
func AltProGeometry(sector0 []byte, total int64) (Geometry, bool) {
	if len(sector0) < SectorSize {
		return Geometry{}, false
	}
	word := func(off int) uint16 { return binary.LittleEndian.Uint16(sector0[off:]) }
	sum := uint16(altProSeed)
	for off := altProBlock; off < SectorSize; off += 2 {
		sum += word(off)
	}
	if sum != altProChecksum {
		return Geometry{}, false
	}
	g := Geometry{
		Cylinders: int(word(altProCylinders)),
		Heads:     int(word(altProHeads)),
		Sectors:   int(word(altProSectors)),
	}
	if g.Cylinders < 1 || g.Heads < 1 || g.Heads > 16 || g.Sectors < 1 || g.Sectors > 255 {
		return Geometry{}, false
	}
	if int64(g.Cylinders)*int64(g.Heads)*int64(g.Sectors) > total {
		return Geometry{}, false
	}
	return g, true
}

// ImageDrive is a Drive backed by a raw disk image.
type ImageDrive struct {
	image disk.Image
	geo   Geometry
	total int64
}

// NewImageDrive returns a drive over image. The geometry comes from an
// AltPro block in the first sector when there is a valid one.
func NewImageDrive(image disk.Image) (*ImageDrive, error) {
	total := image.Length() / SectorSize
	if total == 0 {
		return nil, fmt.Errorf("ide: %s: image too small (%d bytes)", image.Name(), image.Length())
	}
	d := &ImageDrive{image: image, total: total, geo: DefaultGeometry(total)}
	sector0 := make([]byte, SectorSize)
	if _, err := image.ReadAt(sector0, 0); err != nil {
		return nil, fmt.Errorf("ide: %s: read sector 0: %w", image.Name(), err)
	}
	if g, ok := AltProGeometry(sector0, total); ok {
		d.geo = g
		logger.Logf("ide", "%s: AltPro geometry %d/%d/%d", image.Name(), g.Cylinders, g.Heads, g.Sectors)
	}
	return d, nil
}

func (d *ImageDrive) NumCylinders() int      { return d.geo.Cylinders }
func (d *ImageDrive) NumHeads() int          { return d.geo.Heads }
func (d *ImageDrive) NumSectors() int        { return d.geo.Sectors }
func (d *ImageDrive) TotalNumSectors() int64 { return d.total }

func (d *ImageDrive) ReadSectors(buf []byte, lba int64) error {
	if lba < 0 || lba+int64(len(buf)/SectorSize) > d.total {
		return fmt.Errorf("ide: %s: read beyond end at sector %d", d.image.Name(), lba)
	}
	if _, err := d.image.ReadAt(buf, lba*SectorSize); err != nil {
		return fmt.Errorf("ide: %s: read sector %d: %w", d.image.Name(), lba, err)
	}
	return nil
}

func (d *ImageDrive) WriteSectors(buf []byte, lba int64) error {
	if lba < 0 || lba+int64(len(buf)/SectorSize) > d.total {
		return fmt.Errorf("ide: %s: write beyond end at sector %d", d.image.Name(), lba)
	}
	if _, err := d.image.WriteAt(buf, lba*SectorSize); err != nil {
		return fmt.Errorf("ide: %s: write sector %d: %w", d.image.Name(), lba, err)
	}
	return nil
}

func (d *ImageDrive) Model() string {
	return strings.ToUpper("BK " + strings.TrimSuffix(d.image.Name(), ".img"))
}

func (d *ImageDrive) Serial() string   { return fmt.Sprintf("BK%08X", d.total) }
func (d *ImageDrive) Firmware() string { return "1.0" }

// Close closes the image.
func (d *ImageDrive) Close() error { return d.image.Close() }
