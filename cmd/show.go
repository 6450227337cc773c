package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var showHTML bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the full content of a record",
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

		if showHTML {
			if rec.HTML == "" {
				return fmt.Errorf("record %d has no html content", id)
			}
			fmt.Println(rec.HTML)
			return nil
		}
		fmt.Println(rec.Plain)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showHTML, "html", false, "Print the html form instead of plain text")
}
