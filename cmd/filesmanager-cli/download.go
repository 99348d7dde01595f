package main

import (
	"context"
	"io"
	"os"

	"github.com/lista5/filesmanager/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput  string
	downloadStdout  bool
	downloadURLOnly bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <id> [local-path]",
	Short: "Download a file from the server",
	Long: `Download a file from the server.

The server hands out the signed URL stored for the file; the content is
fetched from that URL. The URL is the one signed by the last list, so run
'filesmanager-cli list' first if it may have expired.

Examples:
  filesmanager-cli download 3
  filesmanager-cli download 3 ./local-copy.pdf
  filesmanager-cli download --stdout 5 | jq .
  filesmanager-cli download --url-only 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().BoolVar(&downloadURLOnly, "url-only", false, "print the signed URL without fetching it")
}

func runDownload(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	if downloadURLOnly {
		url, urlErr := client.DownloadURL(context.Background(), id)
		if urlErr != nil {
			return handleError(os.Stderr, urlErr)
		}
		return getFormatter().FormatDownloadURL(os.Stdout, id, url)
	}

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	opts := clientcli.DownloadOptions{
		ID:        id,
		LocalPath: localPath,
	}

	result, reader, err := client.Download(context.Background(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata goes to stderr so it does not mix with the content.
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
