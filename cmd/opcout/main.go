package main

import (
	"github.com/coreman2200/arcaluminis-opc/cmd/opcout/commands"
)

// Version and BuildTime are filled in at build time with -ldflags.
var (
	Version   = "N/A"
	BuildTime = "N/A"
)

func main() {
	commands.Version = Version
	commands.BuildTime = BuildTime
	commands.Execute()
}
