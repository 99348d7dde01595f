package main

import (
	"context"
	"os"

	"github.com/lista5/filesmanager/clientcli"
	"github.com/spf13/cobra"
)

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload a file to the server",
	Long: `Upload a file to the server.

The file is stored under its own name unless --name is given. A custom name
replaces the base name only; the local file's extension is kept. Uploading
to a name that already exists replaces the stored content.

Examples:
  filesmanager-cli upload ./scan.pdf
  filesmanager-cli upload ./scan.pdf --name report     # stored as report.pdf
  filesmanager-cli upload --json ./photo.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "custom base name on the server")
}

func runUpload(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:  args[0],
		CustomName: uploadName,
	}

	result, err := client.Upload(context.Background(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
