package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
	unstable   []string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cdk",
		Short: "CDK Toolkit - deploy and manage cloud infrastructure stacks",
		Long: `The CDK Toolkit compares the stacks you intend to deploy against the state
currently deployed to your environments.

This build carries the stack refactor planner: it detects when the only
difference between local and deployed stacks is a rename or relocation of
resources, and reports an unambiguous old-to-new mapping instead of a
destructive replace.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&unstable, "unstable", nil, "opt in to unstable features (e.g. refactor)")

	rootCmd.AddCommand(newRefactorCommand())

	return rootCmd
}
