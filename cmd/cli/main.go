package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	token  string
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "refgrade-cli",
	Short: "A CLI to interact with the refgrade server",
	Long: `A command-line interface for making requests to the various endpoints
of the refgrade application: listing and importing matches, minting API
tokens and replaying observer grade messages.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("REFGRADE_TOKEN"), "Bearer token for /api endpoints")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Validate without side effects")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
