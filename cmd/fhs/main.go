package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhs",
		Short: "Token authentication and route authorization service",
		Long: `fhs serves a JSON API protected by stateless bearer tokens.

Every request is authenticated from its Authorization header and then
checked against an ordered route policy table. The subcommands below
cover running the server and the offline chores around it:

  serve          run the HTTP API
  migrate        apply database schema migrations
  set-roles      replace the stored roles of a user
  hash-password  print a bcrypt hash for seeding users
  issue-token    sign a token for a subject`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		setRolesCmd(),
		hashPasswordCmd(),
		issueTokenCmd(),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fhs %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
