package main

import (
	"bufio"
	"io"

	"github.com/davecheney/bk/device"
)

const (
	cellWidth  = 4
	cellHeight = 8
)

// printScreen renders the displayed screen as text, one character per
// 4x8 pixel cell.
func printScreen(w io.Writer, v *device.Video) {
	b := v.ScreenBuffer()
	if b == nil {
		return
	}
	lines := device.ScreenHeight
	if !v.IsFullScreen() {
		lines /= 4
	}
	out := bufio.NewWriter(w)
	defer out.Flush()
	row := make([]byte, device.ScreenWidth/cellWidth)
	for y := 0; y < lines; y += cellHeight {
		for i := range row {
			row[i] = ' '
		}
		for dy := 0; dy < cellHeight; dy++ {
			base := v.Line(y + dy)
			for x := 0; x < device.ScreenWidth; x++ {
				word := b.Read(base + x/8)
				if word>>(uint(x)%16)&1 != 0 {
					row[x/cellWidth] = '#'
				}
			}
		}
		out.Write(row)
		out.WriteByte('\n')
	}
}
