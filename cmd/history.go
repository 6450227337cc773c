package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/estnia/copyU/internal/store"
)

var (
	historyLimit  int
	historyOffset int
	historySearch string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List clipboard history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		limit := historyLimit
		if !cmd.Flags().Changed("limit") {
			limit = cfg.MaxDisplayItems
		}

		ctx := cmd.Context()
		summaries, err := listSummaries(ctx, s, limit)
		if err != nil {
			return err
		}

		if len(summaries) == 0 {
			fmt.Println("No clipboard history.")
			return nil
		}

		idColor := color.New(color.FgCyan)
		timeColor := color.New(color.FgHiBlack)
		htmlColor := color.New(color.FgYellow)

		for _, sm := range summaries {
			_, _ = idColor.Printf("%6d  ", sm.ID)
			_, _ = timeColor.Printf("[%s]  ", sm.CreatedAt.Format("01-02 15:04"))
			fmt.Print(sm.Preview)
			if sm.HasHTML {
				_, _ = htmlColor.Print("  (html)")
			}
			fmt.Println()
		}

		total, err := s.Count(ctx)
		if err != nil {
			return err
		}
		_, _ = timeColor.Printf("%d of %d records\n", len(summaries), total)
		return nil
	},
}

func listSummaries(ctx context.Context, s *store.Store, limit int) ([]store.Summary, error) {
	if historySearch != "" {
		return s.Search(ctx, historySearch, limit)
	}
	return s.List(ctx, limit, historyOffset)
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum records to show (0 = config max_display_items)")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "Records to skip")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "Only show records whose text contains this string")
}
