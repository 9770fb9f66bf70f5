package floppy

// CRC-16-CCITT, polynomial 0x1021, as computed by the controller over the
// bytes from an address mark up to the CRC word.
const (
	crcInit = 0xFFFF
	crcPoly = 0x1021
)

var crcTable [256]uint16

func init() {
	for i := range crcTable {
		c := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if c&0x8000 != 0 {
				c = c<<1 ^ crcPoly
			} else {
				c <<= 1
			}
		}
		crcTable[i] = c
	}
}

func crc16(crc uint16, b byte) uint16 {
	return crc<<8 ^ crcTable[byte(crc>>8)^b]
}
