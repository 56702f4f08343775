// Command stepwise runs step-by-step wizards on a sequential step engine.
package main

import (
	"os"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
