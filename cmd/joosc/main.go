// Command joosc is the batch Joos 1W compiler's CLI entry point.
package main

import (
	"os"

	"github.com/cs444-joos/joosc/cmd/joosc/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
