package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/ddlstore/internal/cli"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

func main() {
	os.Exit(run())
}

// run maps the command result, or a panic, to the process exit code.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "ddlstore: internal error: %v\n%s\n", r, debug.Stack())
			code = ddlstore.ExitPanic
		}
	}()
	return ddlstore.ExitCodeForError(cli.Execute())
}
