package main

import (
	"errors"
	"io"
	"os"

	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/dfryer1193/gitpress/internal/config"
	"github.com/dfryer1193/gitpress/internal/credentials"
	"github.com/dfryer1193/gitpress/internal/logging"
	"github.com/dfryer1193/gitpress/internal/ui"
	"github.com/spf13/cobra"
)

const skipConfig = "skipConfig"

var (
	v         = config.New()
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "gitpress",
	Short: "Publish posts to a static blog kept in a git repository",
	Long: `gitpress publishes, edits and deletes posts of a static blog whose files
live in a git repository. Every change is a commit made through the GitHub
Contents API, conditioned on the revision it was read at, so a concurrent edit
is reported as a conflict instead of being overwritten.

Configuration is read from gitpress.yaml, GITPRESS_* environment variables
and flags, in increasing order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			v.SetConfigFile(path)
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		logCloser, err = logging.Setup(cfg.Log, cmd.ErrOrStderr())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./gitpress.yaml)")
	flags.String("backend", "", "Content store: github or sqlite")
	flags.String("owner", "", "GitHub owner of the site repository")
	flags.String("repo", "", "GitHub site repository")
	flags.String("branch", "", "Branch to commit to (default: the repository's default branch)")
	flags.String("sqlite", "", "SQLite file for the sqlite backend")
	flags.String("log-level", "", "Log level")

	for key, flag := range map[string]string{
		"backend":       "backend",
		"github.owner":  "owner",
		"github.repo":   "repo",
		"github.branch": "branch",
		"sqlite.path":   "sqlite",
		"log.level":     "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(publishCmd, deleteCmd, listCmd, uploadCmd, tokenCmd, serveCmd, historyCmd)
}

// resolveToken returns the bearer token for the content store. The saved
// token wins over github.token from config. Only the github backend needs one.
func resolveToken() (string, error) {
	if cfg.Backend != config.BackendGitHub {
		return "", nil
	}

	store, err := credentials.DefaultStore()
	if err != nil {
		return "", err
	}
	token, err := store.Load()
	if errors.Is(err, credentials.ErrNoToken) && cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// openPosts opens the configured backend and builds a post service for the
// current credentials. The caller closes the backend.
func openPosts() (*application.PostService, backend.Backend, error) {
	token, err := resolveToken()
	if err != nil {
		return nil, nil, err
	}
	b, err := backend.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return b.Posts(token), b, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
