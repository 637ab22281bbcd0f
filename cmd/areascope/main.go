// Command areascope is the offline command line interface: one-shot
// aggregations over local record and geometry files.
package main

import (
	"os"

	"github.com/areascope/areascope/internal/interfaces/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
