package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/estnia/copyU/internal/app"
	"github.com/estnia/copyU/internal/config"
	"github.com/estnia/copyU/internal/logger"
	"github.com/estnia/copyU/internal/store"
)

var (
	cfgPath       string
	logLevel      string
	assumeYesFlag bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "copyu",
	Short: "Clipboard history manager",
	Long: `copyU keeps a bounded history of everything you copy. The run command
watches the clipboard and persists snapshots to a local SQLite store;
the remaining commands browse, recall and prune that history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("COPYU_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			}
		}
		logger.SetLevel(level)

		path := cfgPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("copyu version %s\n", app.Version)
		fmt.Printf("Built: %s\n", app.BuildDate)
		fmt.Printf("Git commit: %s\n", app.GitCommit)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the history store configured in config.ini. Callers
// must Close it.
func openStore() (*store.Store, error) {
	s, err := store.Open(cfg.DatabasePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return s, nil
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.config/copyu/config.ini)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
}
