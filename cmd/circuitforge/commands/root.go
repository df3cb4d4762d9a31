package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build metadata, overridden via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var (
	serveHost string
	servePort int
)

var rootCmd = &cobra.Command{
	Use:   "circuitforge",
	Short: "circuitforge is an AI assisted circuit builder",
	Long: `circuitforge collects a free text circuit description and an optional
bill of materials, asks a locally hosted language model for a design review,
draws a block diagram of the component list, and exports the BOM and the
pin to pin connection table.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serveHost, "host", "", "Server host (default: CIRCUITFORGE_HOST env var or localhost)")
	rootCmd.PersistentFlags().IntVar(&servePort, "port", 0, "Server port (default: CIRCUITFORGE_PORT env var or 8080)")
}
