package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/podcatcher/internal/database"
)

var (
	ledgerFeed   string
	ledgerFaulty bool
	ledgerLimit  int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List processed episodes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListEntries(database.EntryFilter{
			FeedID:     ledgerFeed,
			FaultyOnly: ledgerFaulty,
			Limit:      ledgerLimit,
		})
		if err != nil {
			return fmt.Errorf("listing ledger: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No episodes recorded yet.")
			return nil
		}

		fmt.Println(renderTable(ledgerColumns, ledgerRows(entries)))
		return nil
	},
}

func init() {
	ledgerCmd.Flags().StringVar(&ledgerFeed, "feed", "", "Only show episodes of this feed id")
	ledgerCmd.Flags().BoolVar(&ledgerFaulty, "faulty", false, "Only show faulty episodes")
	ledgerCmd.Flags().IntVarP(&ledgerLimit, "limit", "n", 50, "Maximum rows to show (0 for all)")
}

func ledgerRows(entries []database.SeenEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		published := ""
		if !e.PublishedAt.IsZero() {
			published = e.PublishedAt.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			published,
			e.FeedID,
			e.Status.String(),
			e.Title,
		})
	}
	return rows
}
