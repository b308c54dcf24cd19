package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regchunk/internal/app"
)

var searchFlags struct {
	k     int
	docID string
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Find the chunks closest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		k := cfg.SearchK
		if cmd.Flags().Changed("limit") {
			k = searchFlags.k
		}
		hits, err := a.Index.Search(cmd.Context(), strings.Join(args, " "), k, searchFlags.docID)
		if err != nil {
			return err
		}
		return output(cmd, hits)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchFlags.k, "limit", "k", 10, "number of results (default from SEARCH_K)")
	searchCmd.Flags().StringVar(&searchFlags.docID, "doc-id", "", "limit the search to one document")
}
