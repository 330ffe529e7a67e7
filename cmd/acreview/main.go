package main

import (
	"acreview/cmd/acreview/commands"
	"acreview/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
