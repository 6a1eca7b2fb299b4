// Package main is the entry of the cache hierarchy simulator.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cmd/cachesim/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
