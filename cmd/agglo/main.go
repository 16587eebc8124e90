// Command agglo builds user and content cluster trees from a rating file.
package main

import (
	"fmt"
	"os"
)

// Set by the release build.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
