// Command oopsc compiles oops source files to stack-machine assembly.
package main

import (
	"fmt"
	"os"

	"github.com/oops-lang/oopsc/cmd/oopsc/cmd"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		os.Exit(0)
	}
	if exitErr, ok := err.(*cmd.ExitError); ok {
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
