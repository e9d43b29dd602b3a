package main

import (
	"os"

	"github.com/awnumar/memguard"
	"github.com/hrashkan/password-manager/cli"
)

func main() {
	// Wipe locked key buffers on SIGINT/SIGTERM.
	memguard.CatchInterrupt()

	code := cli.Execute()
	memguard.Purge()
	os.Exit(code)
}
