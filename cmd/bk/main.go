// bk emulator.
package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/davecheney/bk/computer"
)

func main() {
	var cli struct {
		Run    runCmd    `cmd:"" default:"1" help:"run a BK-0010 or BK-0011M"`
		Disasm disasmCmd `cmd:"" help:"disassemble a binary image"`
	}

	ctx := kong.Parse(&cli,
		kong.Name("bk"),
		kong.Description("BK-0010 / BK-0011M emulator"),
		kong.Vars{"configs": strings.Join(computer.Configurations(), ",")},
	)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}
