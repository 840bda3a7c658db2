package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload images and print the markup to embed them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	posts, b, err := openPosts()
	if err != nil {
		return err
	}
	defer b.Close()

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		asset, err := posts.UploadImage(cmd.Context(), application.ImageUpload{
			Name:    filepath.Base(path),
			Content: content,
		})
		if err != nil {
			return err
		}
		ui.Success(cmd.ErrOrStderr(), "Uploaded %s to %s", path, asset.Path)
		fmt.Fprintln(cmd.OutOrStdout(), asset.Snippet())
	}
	return nil
}
