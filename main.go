// main is the entry point for the homerank CLI.
package main

import (
	"github.com/huangsam/homerank/cmd"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/iocache"
)

func main() {
	err := cmd.Execute()

	iocache.CloseCaching()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
