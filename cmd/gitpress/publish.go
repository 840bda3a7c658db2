package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a new post or update an existing one",
	Long: `Publish writes the post page and then adds or replaces its record in the
post index. Pass --id to edit an existing post; otherwise the path is derived
from the date and the title (or --slug).

If the page is written but the index update fails, run the same command again.

Examples:
  gitpress publish --title "Vinter" --tags resor,väder --body-file vinter.html
  gitpress publish --title "Vinter" --format markdown --body-file vinter.md
  gitpress publish --id /archive/2025/01/vinter.html --title "Vinter" --body-file vinter.html`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("title", "", "Post title (required)")
	publishCmd.Flags().String("date", "", "Publish date, YYYY-MM-DD (default today)")
	publishCmd.Flags().String("tags", "", "Comma-separated tags")
	publishCmd.Flags().String("body-file", "", "File with the post body, - for stdin")
	publishCmd.Flags().String("format", "html", "Body format: html or markdown")
	publishCmd.Flags().String("slug", "", "Slug for a new post (default derived from the title)")
	publishCmd.Flags().String("id", "", "Identifier of the post to edit")
}

func runPublish(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	date, _ := cmd.Flags().GetString("date")
	tags, _ := cmd.Flags().GetString("tags")
	bodyFile, _ := cmd.Flags().GetString("body-file")
	formatFlag, _ := cmd.Flags().GetString("format")
	slug, _ := cmd.Flags().GetString("slug")
	id, _ := cmd.Flags().GetString("id")

	format, err := application.ParseBodyFormat(formatFlag)
	if err != nil {
		return err
	}
	body, err := readBody(cmd, bodyFile)
	if err != nil {
		return err
	}

	posts, b, err := openPosts()
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := posts.Publish(cmd.Context(), application.PublishRequest{
		Title:  title,
		Date:   date,
		Tags:   application.ParseTags(tags),
		Body:   body,
		Format: format,
		ID:     id,
		Slug:   slug,
	})
	var pubErr *domain.PublicationError
	if errors.As(err, &pubErr) && pubErr.Orphaned() {
		ui.Warn(cmd.ErrOrStderr(), "%s was written but the index was not updated; run the same command again to finish", pubErr.Path)
	}
	if errors.Is(err, domain.ErrConflict) {
		ui.Warn(cmd.ErrOrStderr(), "someone else changed the site since it was read; reload and try again")
	}
	if err != nil {
		return err
	}

	verb := "Updated"
	if result.Created {
		verb = "Published"
	}
	ui.Success(cmd.OutOrStdout(), "%s %s (%d posts in index)", verb, result.Record.ID, len(result.Index.Records))
	return nil
}

func readBody(cmd *cobra.Command, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read body: %w", err)
		}
		return string(data), nil
	}
}
