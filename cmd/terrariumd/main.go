// Command terrariumd runs the simulation engine as a long-lived daemon,
// serving websocket snapshots and HTTP commands, or as a headless batch
// run for scripted/offline use.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "terrariumd",
		Short: "Agent-based world simulator daemon",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(headlessCmd())
	rootCmd.AddCommand(validateConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
