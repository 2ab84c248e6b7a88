// Command rsywx loads the rsywx library home page data from the gateway and
// serves it over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/rsywx-client/pkg/config"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "0.1.0-dev"
	commit  = "development"
)

type rootFlags struct {
	configFile string
	envFiles   []string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "rsywx",
		Short:         "rsywx library data loader",
		Long:          "Loads books, reading, visit and daily content from the rsywx REST gateway and serves the assembled home page data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logger.level")

	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newLoadCommand(flags))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// loadConfig reads configuration and sets up the global logger from it.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: flags.configFile, EnvFiles: flags.envFiles})
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logger.Level = flags.logLevel
	}
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logger.Level),
		Pretty: cfg.Logger.Pretty,
		Output: os.Stderr,
	})
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rsywx version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rsywx %s (commit %s)\n", version, commit)
		},
	}
}
