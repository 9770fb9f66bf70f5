//go:build unix

package main

import (
	"testing"

	"github.com/matryer/is"
)

func TestTranslateKey(t *testing.T) {
	is := is.New(t)
	for b, want := range map[byte]int{'\r': 012, 0x7f: 030, '\t': 011, 'A': 0101, 'z': 0172, 0x03: 03} {
		code, ok := translateKey(b)
		is.True(ok)
		is.Equal(code, want)
	}
	_, ok := translateKey(0x1b)
	is.True(!ok)

	for b, want := range map[byte]int{'A': 032, 'B': 033, 'C': 031, 'D': 010} {
		code, ok := arrowKey(b)
		is.True(ok)
		is.Equal(code, want)
	}
}
