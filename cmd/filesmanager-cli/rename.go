package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a file on the server",
	Long: `Rename a file on the server.

The new name replaces the base name; the current extension is kept.
Renaming onto a name held by another file fails with a conflict.

Examples:
  filesmanager-cli rename 3 quarterly      # report.pdf -> quarterly.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

func runRename(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	file, err := client.Rename(context.Background(), id, args[1])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatRename(os.Stdout, file)
}
