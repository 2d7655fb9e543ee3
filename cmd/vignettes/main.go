// Command vignettes is the blog client: a terminal UI by default, plus
// a few subcommands for scripting.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
