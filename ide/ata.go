// Package ide emulates an ATA task file controller with a master and a slave
// drive, and the SMK-512 adapter that maps it into the BK I/O page.
package ide

// Task file registers.
const (
	RegData  = iota
	RegError // read; RegFeature on write
	RegSectorCount
	RegSectorNumber
	RegCylinderLow
	RegCylinderHigh
	RegDriveHead
	RegStatus // read; RegCommand on write

	RegFeature = RegError
	RegCommand = RegStatus
)

// Status register bits.
const (
	StatusERR  = 0x01
	StatusDRQ  = 0x08
	StatusDSC  = 0x10
	StatusDF   = 0x20
	StatusDRDY = 0x40
	StatusBSY  = 0x80
)

// Error register bits.
const (
	ErrorABRT = 0x04
)

// Drive/head register bits.
const (
	driveHeadSlave = 0x10
	driveHeadLBA   = 0x40
)

// Device control register bits.
const (
	DeviceControlNIEN = 0x02
	DeviceControlSRST = 0x04
)

// Commands.
const (
	CmdRecalibrate     = 0x10 // 0x10-0x1F
	CmdReadSectors     = 0x20
	CmdReadSectorsNR   = 0x21
	CmdWriteSectors    = 0x30
	CmdWriteSectorsNR  = 0x31
	CmdVerify          = 0x40
	CmdVerifyNR        = 0x41
	CmdSeek            = 0x70
	CmdExecDiagnostic  = 0x90
	CmdInitDriveParams = 0x91
	CmdStandbyImm2     = 0x94
	CmdIdleImm2        = 0x95
	CmdStandby2        = 0x96
	CmdIdle2           = 0x97
	CmdCheckPowerMode2 = 0x98
	CmdReadMultiple    = 0xC4
	CmdWriteMultiple   = 0xC5
	CmdSetMultiple     = 0xC6
	CmdStandbyImm      = 0xE0
	CmdIdleImm         = 0xE1
	CmdStandby         = 0xE2
	CmdIdle            = 0xE3
	CmdCheckPowerMode  = 0xE5
	CmdFlushCache      = 0xE7
	CmdIdentify        = 0xEC
)

const (
	SectorSize = 512

	// largest READ/WRITE MULTIPLE block
	maxMultipleSectors = 16
)
