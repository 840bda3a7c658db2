package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post and remove it from the index",
	Long: `Delete removes the post page, if it still exists, and then the post's
record from the index. A page that is already gone is not an error.

Examples:
  gitpress delete /archive/2025/01/vinter.html
  gitpress delete /archive/2025/01/vinter.html --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	yes, _ := cmd.Flags().GetBool("yes")

	posts, b, err := openPosts()
	if err != nil {
		return err
	}
	defer b.Close()

	rec, err := posts.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	if !yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q (%s)?", rec.Title, rec.Date)).
			Description(id).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ui.Warn(cmd.OutOrStdout(), "Nothing deleted")
			return nil
		}
	}

	result, err := posts.Delete(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !result.ContentDeleted {
		ui.Warn(cmd.OutOrStdout(), "Page %s was already gone", id)
	}
	ui.Success(cmd.OutOrStdout(), "Deleted %s (%d posts left)", id, len(result.Index.Records))
	return nil
}
