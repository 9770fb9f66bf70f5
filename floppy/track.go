package floppy

// Track geometry.
const (
	WordsPerTrack   = 3125
	SectorsPerTrack = 10
	BytesPerSector  = 512
	WordsPerSector  = BytesPerSector / 2
	MaxTracks       = 82
	Sides           = 2

	// bytes of one cylinder, both sides
	bytesPerCylinder = SectorsPerTrack * BytesPerSector * Sides
)

// Track area lengths in words.
const (
	gap1Length = 16
	syncLength = 6
	gap2Length = 11
	gap3Length = 18
)

const (
	gapWord        = 0x4E4E
	syncWord       = 0x0000
	markerWord     = 0xA1A1
	idMarkWord     = 0xA1FE
	dataMarkWord   = 0xA1FB
	sectorSizeCode = 2 // 512 bytes

	// the data marker must follow the header within this many words
	dataMarkerWindow = 64
)

// trackBuffer is one side of one cylinder as it passes under the head, a
// word at a time. Words are in media order, high byte first.
type trackBuffer struct {
	data     [WordsPerTrack]uint16
	isMarker [WordsPerTrack]bool
	isCRC    [WordsPerTrack]bool
}

func wrap(i int) int {
	i %= WordsPerTrack
	if i < 0 {
		i += WordsPerTrack
	}
	return i
}

// crc returns the CRC of the words from, up to but not including to.
func (t *trackBuffer) crc(from, to int) uint16 {
	c := uint16(crcInit)
	for i := from; wrap(i) != wrap(to); i++ {
		w := t.data[wrap(i)]
		c = crc16(c, byte(w>>8))
		c = crc16(c, byte(w))
	}
	return c
}

// format lays out a freshly formatted track. sectors holds the contents of
// the ten sectors in order.
func (t *trackBuffer) format(track, side int, sectors *[SectorsPerTrack][BytesPerSector]byte) {
	*t = trackBuffer{}
	pos := 0
	put := func(w uint16) {
		t.data[pos] = w
		pos++
	}
	fill := func(w uint16, n int) {
		for i := 0; i < n; i++ {
			put(w)
		}
	}
	putCRC := func(from int) {
		t.data[pos] = t.crc(from, pos)
		t.isCRC[pos] = true
		pos++
	}

	fill(gapWord, gap1Length)
	for s := 0; s < SectorsPerTrack; s++ {
		fill(syncWord, syncLength)
		m := pos
		t.isMarker[pos] = true
		put(markerWord)
		put(idMarkWord)
		put(uint16(track)<<8 | uint16(side))
		put(uint16(s+1)<<8 | sectorSizeCode)
		putCRC(m)

		fill(gapWord, gap2Length)
		fill(syncWord, syncLength)
		m = pos
		t.isMarker[pos] = true
		put(markerWord)
		put(dataMarkWord)
		b := &sectors[s]
		for i := 0; i < BytesPerSector; i += 2 {
			put(uint16(b[i])<<8 | uint16(b[i+1]))
		}
		putCRC(m)

		fill(gapWord, gap3Length)
	}
	// GAP4B
	fill(gapWord, WordsPerTrack-pos)
}

// sector is a sector recovered from a track.
type sector struct {
	track, side, number int
	data                [BytesPerSector]byte
}

// sectors scans the track for sectors whose header and data CRCs are valid.
// Anything else is reported through bad and skipped.
func (t *trackBuffer) sectors(bad func(pos int, reason string)) []sector {
	var found []sector
	for i := 0; i < WordsPerTrack; i++ {
		if !t.isMarker[i] || t.data[i] != markerWord || t.data[wrap(i+1)] != idMarkWord {
			continue
		}
		if t.crc(i, i+4) != t.data[wrap(i+4)] {
			bad(i, "header CRC mismatch")
			continue
		}
		s := sector{
			track:  int(t.data[wrap(i+2)] >> 8),
			side:   int(t.data[wrap(i+2)] & 0377),
			number: int(t.data[wrap(i+3)] >> 8),
		}
		j := i + 5
		for ; j < i+5+dataMarkerWindow; j++ {
			if t.isMarker[wrap(j)] && t.data[wrap(j)] == markerWord && t.data[wrap(j+1)] == dataMarkWord {
				break
			}
		}
		if j == i+5+dataMarkerWindow {
			bad(i, "no data marker")
			continue
		}
		end := j + 2 + WordsPerSector
		if t.crc(j, end) != t.data[wrap(end)] {
			bad(j, "data CRC mismatch")
			continue
		}
		for k := 0; k < WordsPerSector; k++ {
			w := t.data[wrap(j+2+k)]
			s.data[2*k] = byte(w >> 8)
			s.data[2*k+1] = byte(w)
		}
		found = append(found, s)
	}
	return found
}
