// Command joinctl runs the library's end-to-end demonstration
// scenarios against an in-process join definition and prints their
// outcome, for manual verification and as runnable documentation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "joinctl",
		Short: "joinctl runs end-to-end join-calculus demonstration scenarios",
	}
	root.AddCommand(newCounterCommand())
	root.AddCommand(newFetchCommand())
	root.AddCommand(newPhilosophersCommand())
	root.AddCommand(newMapReduceCommand())
	return root
}
