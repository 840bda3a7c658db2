package main

import (
	"errors"
	"fmt"

	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show the commit log of the local store",
	Long: `History lists the commits the sqlite backend recorded for a path,
newest first. The path defaults to the post index. With the github backend
use git log on the site repository instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of commits to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	path := cfg.Paths.Index
	if len(args) == 1 {
		path = args[0]
	}

	b, err := backend.Open(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	local, ok := b.(*backend.Local)
	if !ok {
		return errors.New("history is only recorded by the sqlite backend")
	}

	commits, err := local.Store().History(cmd.Context(), path, limit)
	if err != nil {
		return err
	}
	for _, c := range commits {
		sha := c.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s  %-7s  %s\n", c.CommittedAt.Format("2006-01-02 15:04"), c.Action, sha, c.Message)
	}
	return nil
}
