//go:build !unix

package main

import (
	"errors"

	"github.com/davecheney/bk/computer"
)

type terminalKeyboard struct{}

func startKeyboard(c *computer.Computer, quit func()) (*terminalKeyboard, error) {
	return nil, errors.New("terminal keyboard is not supported on this platform")
}

func (k *terminalKeyboard) Stop() {}
