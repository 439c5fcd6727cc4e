package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"nbexit/internal/config"
	"nbexit/internal/exitnode"
	"nbexit/internal/netbird"
	logg "nbexit/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath = ""
	skipConfig = false
	verbose    = false
)

//go:embed version.txt
var version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "nbexit",
	Short:   "Manage NetBird exit nodes.",
	Long:    "nbexit assigns, removes and inspects exit-node routing for peers of a NetBird mesh,\nfrom the command line, an interactive terminal menu or a desktop tray applet.",
	Version: strings.TrimSpace(version),
	Run: func(cmd *cobra.Command, args []string) {
		// No subcommand drops into the interactive menu.
		runMenu()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// resolveConfig or exit with error
func resolveConfig() *config.Config {
	cfg, err := config.New(configPath, skipConfig)
	if err != nil {
		fmt.Printf("unable to initialize config: %s\n", err.Error())
		os.Exit(1)
	}

	if verbose {
		cfg.Logger.Level = "debug"
		cfg.Logger.Quiet = false
	}

	logger := logg.New(cfg.Logger).Desugar()
	zap.ReplaceGlobals(logger)

	return cfg
}

// newEngine builds the workflow engine from validated credentials.
func newEngine() (*exitnode.Engine, *config.Config) {
	cfg := resolveConfig()
	if err := cfg.Validate(); err != nil {
		exitOnError(err)
	}

	client := netbird.NewClient(cfg.API.URL, cfg.API.AccessToken, cfg.RequestTimeout(), zap.S())
	return exitnode.New(client), cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to toml config (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&skipConfig, "skip-config", false, "skips the config file and uses ENV only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror debug logs to the console")
}
