// crashtriage reads HotSpot JVM fatal error logs (hs_err_pid*.log),
// explains the likely causes of the crash and keeps a history of analyzed
// crashes to spot recurrences.
package main

import (
	"os"

	"github.com/setevik/crashtriage/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	os.Exit(cli.Execute())
}
