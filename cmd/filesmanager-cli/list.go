package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List files on the server",
	Long: `List every file on the server.

The server reconciles its index with the bucket before answering, so
objects added or removed out of band show up here. Every listed URL is
freshly signed.

Examples:
  filesmanager-cli list
  filesmanager-cli list --json | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	files, err := client.List(context.Background())
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatList(os.Stdout, files)
}
