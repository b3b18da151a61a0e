// Command ctlreplay inspects recorded control protocol transcripts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ctlreplay",
		Short:         "Inspect recorded control protocol transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newDecodeCmd())

	return rootCmd
}
