package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove records older than the configured retention age",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		removed, err := s.RunRetentionSweep(cmd.Context(), time.Now(), cfg.MaxAge())
		if err != nil {
			return err
		}

		fmt.Printf("Removed %d expired records (max age %s)\n", removed, cfg.MaxAge())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
