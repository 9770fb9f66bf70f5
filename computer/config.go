package computer

import (
	"fmt"
	"strings"

	"github.com/davecheney/bk/clock"
)

// Model is the machine family.
type Model int

const (
	BK0010 Model = iota
	BK0011M
)

func (m Model) String() string {
	switch m {
	case BK0010:
		return "BK-0010"
	case BK0011M:
		return "BK-0011M"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// Frequency returns the CPU clock of the model.
func (m Model) Frequency() clock.Frequency {
	if m == BK0011M {
		return clock.BK0011M
	}
	return clock.BK0010
}

// StartAddress returns the address the model boots from.
func (m Model) StartAddress() uint16 {
	if m == BK0011M {
		return 0140000
	}
	return 0100000
}

// ROM identifiers passed to a ROMProvider.
const (
	ROMMonitor10 = "monitor10"
	ROMBasic10_1 = "basic10_1"
	ROMBasic10_2 = "basic10_2"
	ROMBasic10_3 = "basic10_3"
	ROMFocal10   = "focal10"
	ROMTests10   = "tests10"
	ROMBos11M    = "bos11m"
	ROMBasic11M0 = "basic11m_0"
	ROMBasic11M1 = "basic11m_1"
	ROMDisk327   = "disk_327"
	ROMSmk512    = "smk512"
)

// ROM window sizes.
const (
	romSize8K   = 020000
	romSize4K   = 010000
	romSizeTop  = 017600 // 0160000-0177577, below the I/O registers
	romPageSize = 040000
)

// romImage places a ROM at a fixed address.
type romImage struct {
	id       string
	start    uint16
	size     int
	optional bool
}

// Configuration is a machine model with its ROM set and peripherals.
type Configuration struct {
	Name  string
	Model Model

	roms     []romImage
	romPages []string // BK-0011M ROM pages 0-3, "" for an empty socket

	// BK-0010 floppy configurations carry 16 KiB of extra RAM at 0120000.
	extraRAM bool

	Floppy bool
	IDE    bool
}

var configurations = []Configuration{{
	Name:  "bk0010-basic",
	Model: BK0010,
	roms: []romImage{
		{id: ROMMonitor10, start: 0100000, size: romSize8K},
		{id: ROMBasic10_1, start: 0120000, size: romSize8K},
		{id: ROMBasic10_2, start: 0140000, size: romSize8K},
		{id: ROMBasic10_3, start: 0160000, size: romSizeTop},
	},
}, {
	Name:  "bk0010-focal",
	Model: BK0010,
	roms: []romImage{
		{id: ROMMonitor10, start: 0100000, size: romSize8K},
		{id: ROMFocal10, start: 0120000, size: romSize8K},
		{id: ROMTests10, start: 0160000, size: romSizeTop, optional: true},
	},
}, {
	Name:  "bk0010-fdd",
	Model: BK0010,
	roms: []romImage{
		{id: ROMMonitor10, start: 0100000, size: romSize8K},
		{id: ROMDisk327, start: 0160000, size: romSize4K},
	},
	extraRAM: true,
	Floppy:   true,
}, {
	Name:  "bk0011m",
	Model: BK0011M,
	roms: []romImage{
		{id: ROMBos11M, start: 0140000, size: romSize8K},
	},
	romPages: []string{ROMBasic11M0, ROMBasic11M1},
}, {
	Name:  "bk0011m-fdd",
	Model: BK0011M,
	roms: []romImage{
		{id: ROMBos11M, start: 0140000, size: romSize8K},
		{id: ROMDisk327, start: 0160000, size: romSize4K},
	},
	romPages: []string{ROMBasic11M0, ROMBasic11M1},
	Floppy:   true,
}, {
	Name:  "bk0011m-ide",
	Model: BK0011M,
	roms: []romImage{
		{id: ROMBos11M, start: 0140000, size: romSize8K},
		{id: ROMSmk512, start: 0160000, size: romSize4K},
	},
	romPages: []string{ROMBasic11M0, ROMBasic11M1},
	Floppy:   true,
	IDE:      true,
}}

// Configurations returns the names of the known configurations.
func Configurations() []string {
	names := make([]string, len(configurations))
	for i, c := range configurations {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the configuration called name.
func Lookup(name string) (Configuration, error) {
	for _, c := range configurations {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Configuration{}, fmt.Errorf("computer: unknown configuration %q (have %s)", name, strings.Join(Configurations(), ", "))
}
