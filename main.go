// main is the entry point for the patchrisk CLI.
package main

import (
	"github.com/huangsam/patchrisk/cmd"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()

	iocache.CloseStores()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
