// Command roomsim simulates realtime rooms against an in-memory hub.
package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/furry-live/config"
	"github.com/odvcencio/furry-live/internal/cli"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
