package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/davecheney/bk/cpu"
)

type disasmCmd struct {
	File string `arg:"" type:"existingfile" help:"binary image to disassemble"`
	Base uint16 `name:"base" default:"32768" help:"load address of the first byte"`
	BIN  bool   `name:"bin" help:"the file starts with a BK .BIN header (load address and length)"`
}

func (d *disasmCmd) Run(ctx *kong.Context) error {
	data, err := os.ReadFile(d.File)
	if err != nil {
		return err
	}
	base := d.Base
	if d.BIN {
		if len(data) < 4 {
			return fmt.Errorf("%s: short .BIN header", d.File)
		}
		base = binary.LittleEndian.Uint16(data)
		n := int(binary.LittleEndian.Uint16(data[2:]))
		data = data[4:]
		if n < len(data) {
			data = data[:n]
		}
	}
	read := func(addr uint16) (uint16, bool) {
		off := int(addr - base)
		if off+1 >= len(data) {
			return 0, false
		}
		return binary.LittleEndian.Uint16(data[off:]), true
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for off := 0; off+1 < len(data); {
		addr := base + uint16(off)
		text, n := cpu.Disassemble(read, addr)
		fmt.Fprintf(out, "%06o: ", addr)
		for i := 0; i < 6; i += 2 {
			if i < n {
				v, _ := read(addr + uint16(i))
				fmt.Fprintf(out, "%06o ", v)
			} else {
				fmt.Fprint(out, "       ")
			}
		}
		fmt.Fprintln(out, text)
		off += n
	}
	return nil
}
