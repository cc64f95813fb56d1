package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/db8labs/db8-agent/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "db8-agent",
		Short:   "Real-estate listing copy and publishing service",
		Long:    "DB8 Agent stores property listings, writes their marketing copy with an LLM, and publishes them against a credits plan.",
		Version: fmt.Sprintf("%s (%s, %s)", build.Version, build.Commit, build.Branch),
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newCreditsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
