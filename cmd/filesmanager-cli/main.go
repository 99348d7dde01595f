package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lista5/filesmanager/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	endpoint    string
	profileName string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "filesmanager-cli",
	Version: version,
	Short:   "Client for the filesmanager API",
	Long: `filesmanager-cli - Client for a filesmanager server

Files are addressed by the numeric ID the server assigns on upload.
Run 'filesmanager-cli list' to see IDs, names and signed download URLs.

Connection settings are resolved from (highest precedence first):
  - flags (--endpoint)
  - environment (FILESMANAGER_ENDPOINT)
  - the selected profile (--profile, FILESMANAGER_PROFILE or the default)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filesmanager/config.yaml, env: FILESMANAGER_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5000, env: FILESMANAGER_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: FILESMANAGER_PROFILE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getConfigPath resolves the profile file from the flag, the environment or
// the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	if path := getConfigPath(); path != "" {
		file, err := clientcli.LoadConfigFile(path)
		switch {
		case err == nil:
			p, profErr := file.GetProfile(name)
			if profErr != nil && name != "" {
				return nil, profErr
			}
			if profErr == nil {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			}
		case errors.Is(err, os.ErrNotExist) && cfgFile == "" && name == "":
			// No profile file at the default location is fine.
		default:
			return nil, err
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv())
	configs = append(configs, &clientcli.Config{Endpoint: endpoint})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// handleError prints err with the active formatter and returns an exitError
// so cobra does not print it a second time.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	return &exitError{code: 1}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", clientcli.ErrInvalidID, s)
	}
	return id, nil
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
