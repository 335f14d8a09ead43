package main

import (
	"os"

	"notetoolbar/cmd"

	"github.com/rohanthewiz/logger"
)

func main() {
	// Initialize logger; the configured level replaces this once flags are read
	logger.SetLogLevel("info")

	if err := cmd.NewRootCmd().Execute(); err != nil {
		logger.LogErr(err, "notetoolbar failed")
		os.Exit(1)
	}
}
