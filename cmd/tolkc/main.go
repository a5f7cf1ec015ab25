// Command tolkc is the tolk_proceed CLI entry point: it reads a
// compilation unit in internal/compileserver's wire format, runs it
// through the pipeline, and writes emitted fift-asm, the same
// responsibilities cmd/funxy/main.go's main() discharges for its own
// interpreter (argument dispatch, a deferred panic recovery, os.Exit
// codes) - narrowed here to a single compile operation instead of a
// family of run/build/test subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/tolklang/tolk/pkg/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "tolkc: internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a compiler bug, please report it")
			os.Exit(1)
		}
	}()

	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
