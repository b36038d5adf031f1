// Command apiforge generates API test cases from documentation.
package main

import (
	"os"

	"github.com/custodia-labs/apiforge/internal/adapters/driving/cli"
	"github.com/custodia-labs/apiforge/internal/app"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(app.Bootstrap)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
