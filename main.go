// The main package for the sitefetch executable.
package main

import (
	"github.com/sitefetch/sitefetch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
