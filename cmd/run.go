package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/estnia/copyU/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clipboard watcher daemon",
	Long: `Watches the system clipboard and persists every copy into the history
store. Expired records are swept hourly (configurable) and after each
capture. Stop with SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		daemon, err := app.New(cfg)
		if err != nil {
			return err
		}
		return daemon.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
