package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"gst-reconciliation-service/cmd/reconciler/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// GSTRECON_* settings may come from a local .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.Execute())
}
