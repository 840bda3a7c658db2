package main

import (
	"fmt"

	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published posts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("query", "q", "", "Only posts whose title, tags or identifier contain this text")
}

func runList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")

	posts, b, err := openPosts()
	if err != nil {
		return err
	}
	defer b.Close()

	idx, err := posts.List(cmd.Context())
	if err != nil {
		return err
	}
	if idx.Corrupt {
		ui.Warn(cmd.ErrOrStderr(), "The index at revision %s could not be parsed; publishing is refused until it is fixed", idx.Revision)
	}

	for _, rec := range application.NewFeed(idx.Records, cfg.Site.Lang).Search(query) {
		fmt.Fprintln(cmd.OutOrStdout(), ui.PostLine(rec.Date, rec.Title, rec.ID, rec.Tags))
	}
	return nil
}
