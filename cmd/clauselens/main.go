// Command clauselens is the command-line client: it compares contracts
// locally, manages uploaded documents through the API, and runs database
// migrations.  Build metadata is injected into the cli package variables
// through -ldflags.
package main

import (
	"os"

	"github.com/turtacn/ClauseLens/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
