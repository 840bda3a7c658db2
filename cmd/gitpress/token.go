package main

import (
	"github.com/dfryer1193/gitpress/internal/credentials"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "Manage the saved GitHub token",
	Annotations: map[string]string{skipConfig: "true"},
}

var tokenSaveCmd = &cobra.Command{
	Use:         "save <token>",
	Short:       "Save a GitHub token with contents:write on the site repository",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.DefaultStore()
		if err != nil {
			return err
		}
		if err := store.Save(args[0]); err != nil {
			return err
		}
		ui.Success(cmd.OutOrStdout(), "Token saved to %s", store.Path())
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:         "clear",
	Short:       "Remove the saved token",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.DefaultStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		ui.Success(cmd.OutOrStdout(), "Token cleared")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSaveCmd, tokenClearCmd)
}
