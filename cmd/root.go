package cmd

import (
	"github.com/spf13/cobra"

	"metaclean/internal"
)

// Version is overridden at build time or from the embedded VERSION file.
var Version = "dev"

var (
	configFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "metaclean",
	Short: "Strip metadata from photos and videos",
	Long: `metaclean writes a copy of an image or video without its metadata
(EXIF, GPS, camera info, container tags, chapters). The copy is named
[CLEANED]<token>_<name> and placed beside the original, which is never touched.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ApplyVersion pushes Version into the root command's --version output.
func ApplyVersion() {
	rootCmd.Version = Version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: <user config dir>/metaclean/metaclean.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log every pipeline step")
	ApplyVersion()
}

// loadRuntime loads and validates the config and opens the logger.
// override may adjust the config before validation.
func loadRuntime(override func(*internal.Config)) (*internal.Config, *internal.Logger, error) {
	conf, err := internal.LoadConfig(configFlag)
	if err != nil {
		return nil, nil, err
	}
	if verboseFlag {
		conf.LogLevel = internal.LevelDebug.String()
	}
	if override != nil {
		override(conf)
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := internal.NewLoggerFromConfig(conf)
	if err != nil {
		return nil, nil, err
	}
	return conf, logger, nil
}
