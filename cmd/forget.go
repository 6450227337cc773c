package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/estnia/copyU/internal/store"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Remove a single record from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(cmd.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("record %d not found (already evicted?)", id)
			}
			return err
		}

		fmt.Printf("Record %d removed\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
