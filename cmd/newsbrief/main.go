// Command newsbrief is the entry point for the AI newsletter pipeline.
// It provides CLI commands for ingesting articles, indexing them into the
// vector store, sending newsletters on demand, and running the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/brieflet/newsbrief-go/cmd/newsbrief/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
