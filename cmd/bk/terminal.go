//go:build unix

package main

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/davecheney/bk/computer"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	keyQuit    = 0x1d // Ctrl-]
	keyStop    = 0x1c // Ctrl-\
	keyRelease = 40 * time.Millisecond
)

// terminalKeyboard feeds host terminal input to the BK keyboard.
type terminalKeyboard struct {
	c     *computer.Computer
	quit  func()
	fd    int
	saved *term.State

	done chan struct{}
	wg   sync.WaitGroup
}

func startKeyboard(c *computer.Computer, quit func()) (*terminalKeyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		term.Restore(fd, saved)
		return nil, err
	}
	k := &terminalKeyboard{c: c, quit: quit, fd: fd, saved: saved, done: make(chan struct{})}
	k.wg.Add(1)
	go k.loop()
	return k, nil
}

// Stop ends the input loop and restores the terminal.
func (k *terminalKeyboard) Stop() {
	close(k.done)
	k.wg.Wait()
	unix.SetNonblock(k.fd, false)
	term.Restore(k.fd, k.saved)
}

func (k *terminalKeyboard) loop() {
	defer k.wg.Done()
	buf := make([]byte, 64)
	var pending []byte
	for {
		select {
		case <-k.done:
			return
		default:
		}
		n, err := unix.Read(k.fd, buf)
		if err == unix.EAGAIN || err == unix.EINTR || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		pending = k.decode(append(pending, buf[:n]...))
	}
}

// decode delivers complete key sequences from b and returns the unconsumed
// tail of an escape sequence.
func (k *terminalKeyboard) decode(b []byte) []byte {
	for len(b) > 0 {
		if b[0] == 0x1b {
			if len(b) < 3 {
				return b
			}
			if b[1] == '[' {
				if code, ok := arrowKey(b[2]); ok {
					k.press(code)
				}
				b = b[3:]
				continue
			}
		}
		switch b[0] {
		case keyQuit:
			k.quit()
		case keyStop:
			k.c.StopKey()
		default:
			if code, ok := translateKey(b[0]); ok {
				k.press(code)
			}
		}
		b = b[1:]
	}
	return nil
}

func (k *terminalKeyboard) press(code int) {
	k.c.KeyEvent(code, false, true)
	time.AfterFunc(keyRelease, func() { k.c.KeyEvent(code, false, false) })
}

func arrowKey(b byte) (int, bool) {
	switch b {
	case 'A':
		return 032, true
	case 'B':
		return 033, true
	case 'C':
		return 031, true
	case 'D':
		return 010, true
	}
	return 0, false
}

// translateKey maps a host byte to a BK key code.
func translateKey(b byte) (int, bool) {
	switch {
	case b == '\r' || b == '\n':
		return 012, true
	case b == 0x7f || b == 0x08:
		return 030, true
	case b == '\t':
		return 011, true
	case b >= 0x20 && b < 0x7f:
		return int(b), true
	case b < 0x20 && b != 0x1b:
		return int(b), true
	}
	return 0, false
}
