package main

import (
	"fmt"
	"runtime"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionString() string {
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("whohas %s (%s, %s, %s)", version, short, date, runtime.Version())
}

func main() {
	Execute()
}
