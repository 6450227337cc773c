package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/estnia/copyU/internal/watch"
)

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Put a stored record back on the clipboard",
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

		rec, err := s.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		text := rec.Plain
		if text == "" {
			text = rec.HTML
		}
		if err := watch.Write(text); err != nil {
			return err
		}

		fmt.Printf("Record %d copied to clipboard (%d bytes)\n", rec.ID, len(text))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
}
