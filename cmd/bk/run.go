package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/davecheney/bk/computer"
	"github.com/davecheney/bk/cpu"
	"github.com/davecheney/bk/disk"
	"github.com/davecheney/bk/floppy"
	"github.com/davecheney/bk/ide"
	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/state"
)

type runCmd struct {
	Model     string `name:"model" enum:"${configs}" default:"bk0011m" help:"machine configuration: ${configs}"`
	ROMs      string `name:"roms" default:"roms" help:"directory holding <id>.rom files"`
	FddA      string `name:"fdd-a" type:"existingfile" help:"floppy image for drive A"`
	FddB      string `name:"fdd-b" type:"existingfile" help:"floppy image for drive B"`
	FddC      string `name:"fdd-c" type:"existingfile" help:"floppy image for drive C"`
	FddD      string `name:"fdd-d" type:"existingfile" help:"floppy image for drive D"`
	HddMaster string `name:"hdd-master" type:"existingfile" help:"hard disk image for the IDE master"`
	HddSlave  string `name:"hdd-slave" type:"existingfile" help:"hard disk image for the IDE slave"`
	ReadOnly  bool   `name:"readonly" help:"mount every image read only"`
	Wav       string `name:"wav" type:"path" help:"record the speaker to a WAV file"`
	Statsview bool   `name:"statsview" help:"serve runtime statistics on localhost:12600"`
	Log       bool   `name:"log" help:"echo the emulator log to stderr"`
	Trace     bool   `name:"trace" help:"disassemble every instruction to stderr"`
	EMT       bool   `name:"emt" help:"log EMT calls serviced by the ROM"`
	State     string `name:"state" type:"path" help:"restore state from this file on start, save it on exit"`
	Ticks     int64  `name:"ticks" help:"run this many clock ticks and exit"`
	Fast      bool   `name:"fast" help:"do not pace the emulation to real time"`
	Screen    bool   `name:"screen" help:"print the screen on exit"`
}

func (r *runCmd) Run(ctx *kong.Context) error {
	if r.Log {
		logger.SetEcho(os.Stderr)
	}
	config, err := computer.Lookup(r.Model)
	if err != nil {
		return err
	}
	c, err := computer.New(config, computer.DirROMProvider(r.ROMs))
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Log("bk", err.Error())
		}
	}()
	if err := r.mount(c); err != nil {
		return err
	}

	c.Reset()
	if err := r.restore(c); err != nil {
		return err
	}
	if r.Trace {
		c.SetTrace(os.Stderr)
	}
	if r.EMT {
		c.AddTrapListener(cpu.TrapListenerFunc(logEMT))
	}
	c.SetThrottle(!r.Fast)

	var rec *speakerRecorder
	if r.Wav != "" {
		rec = newSpeakerRecorder(c.Frequency())
		c.SetSpeakerListener(rec)
	}
	if r.Statsview {
		stop := launchStatsview(os.Stderr)
		defer stop()
	}

	if r.Ticks > 0 {
		c.RunTicks(r.Ticks)
	} else if err := r.interactive(c); err != nil {
		return err
	}

	if rec != nil {
		if err := rec.WriteFile(r.Wav, c.Time()); err != nil {
			return err
		}
	}
	if r.Screen {
		printScreen(os.Stdout, c.Video())
	}
	return r.save(c)
}

func (r *runCmd) interactive(c *computer.Computer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kbd, err := startKeyboard(c, cancel)
	if err != nil {
		logger.Logf("bk", "keyboard: %v", err)
	} else {
		defer kbd.Stop()
	}
	fmt.Fprintf(os.Stderr, "%s running; Ctrl-] quits, Ctrl-\\ is STOP\r\n", c.Configuration().Name)

	err = c.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *runCmd) mount(c *computer.Computer) error {
	for drive, path := range map[int]string{floppy.A: r.FddA, floppy.B: r.FddB, floppy.C: r.FddC, floppy.D: r.FddD} {
		if path == "" {
			continue
		}
		img, err := disk.Open(path, r.ReadOnly)
		if err != nil {
			return err
		}
		if err := c.MountFloppy(drive, img, r.ReadOnly); err != nil {
			img.Close()
			return err
		}
	}
	for pos, path := range map[int]string{ide.Master: r.HddMaster, ide.Slave: r.HddSlave} {
		if path == "" {
			continue
		}
		img, err := disk.Open(path, r.ReadOnly)
		if err != nil {
			return err
		}
		if err := c.AttachDisk(pos, img); err != nil {
			img.Close()
			return err
		}
	}
	return nil
}

func (r *runCmd) restore(c *computer.Computer) error {
	if r.State == "" {
		return nil
	}
	f, err := os.Open(r.State)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := state.Decode(f)
	if err != nil {
		return err
	}
	if err := c.RestoreState(s); err != nil {
		return err
	}
	logger.Logf("bk", "restored %s", r.State)
	return nil
}

func (r *runCmd) save(c *computer.Computer) error {
	if r.State == "" {
		return nil
	}
	s := state.New()
	c.SaveState(s)
	f, err := os.Create(r.State)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func logEMT(c *cpu.CPU, vector uint16) {
	if vector != cpu.VectorEMT || !c.IsTrapHandlerInROM(vector) {
		return
	}
	if n, ok := c.TrapNumber(); ok {
		logger.Logf("emt", "EMT %03o R0=%06o R1=%06o R2=%06o", n, c.R[cpu.R0], c.R[cpu.R1], c.R[cpu.R2])
	}
}
