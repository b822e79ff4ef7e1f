// Command handbook answers employee questions from the company handbook.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/handbook/internal/adapters/driving/cli"
)

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cli.SetWiring(cli.Wiring{
		Settings: openSettings,
		Services: wireServices,
	})

	err := cli.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
