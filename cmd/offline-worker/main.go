// offline-worker is the SusuSave offline layer as a standalone daemon: a
// caching proxy in front of the application origin that applies the same
// strategies as the in-browser worker, plus local endpoints for control
// commands and push delivery.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "offline-worker",
	Short: "SusuSave offline cache worker",
	Long:  "Caching proxy implementing the SusuSave offline layer: generation-versioned stores, per-route caching strategies, control commands, and push notifications.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
