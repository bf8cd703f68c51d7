// Command nodegraph serves, renders and configures node-graph canvases.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "nodegraph: %v\n", err)
		os.Exit(1)
	}
}
