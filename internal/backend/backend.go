package backend

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/dfryer1193/gitpress/blog/persistence"
	"github.com/dfryer1193/gitpress/internal/config"
	"github.com/dfryer1193/gitpress/shared/db"
	"github.com/dfryer1193/gitpress/shared/db/sqlite"
	gh "github.com/dfryer1193/gitpress/shared/github"
	"github.com/rs/zerolog/log"
)

// ErrUnauthorized is returned by Authorize when a bearer token may not administer the site.
var ErrUnauthorized = errors.New("bearer token not accepted")

// Backend builds the services one caller works against. token is the caller's
// bearer credential; it selects whose rights the content store writes with.
type Backend interface {
	// Authorize decides whether token may use the admin routes.
	Authorize(token string) error
	Posts(token string) *application.PostService
	// Comments returns nil when the backend has no comment threads.
	Comments(token string) domain.CommentCounter
	Close() error
}

// Open builds the backend named by cfg.Backend.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendGitHub:
		return NewGitHub(cfg), nil
	case config.BackendSQLite:
		return OpenLocal(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// NewPostService wires the publication workflows onto store.
func NewPostService(store domain.ContentStore, cfg *config.Config) *application.PostService {
	paths := application.Paths{
		Index:   cfg.Paths.Index,
		Archive: cfg.Paths.Archive,
		Images:  cfg.Paths.Images,
	}
	index := application.NewIndexSynchronizer(store, paths.Index, application.WithCorruptOverwrite(cfg.Index.AllowCorruptOverwrite))
	pages := application.NewPageRenderer(application.SiteConfig{
		Name:         cfg.Site.Name,
		Lang:         cfg.Site.Lang,
		Repo:         cfg.RepoFullName(),
		CommentLabel: cfg.Comments.Label,
		CommentTheme: cfg.Comments.Theme,
	})
	return application.NewPostService(store, index, application.NewMarkdownRenderer(paths.Images), pages, paths)
}

// GitHub commits to the site repository through the Contents API.
type GitHub struct {
	cfg *config.Config
}

func NewGitHub(cfg *config.Config) *GitHub {
	return &GitHub{cfg: cfg}
}

// Authorize accepts any token; GitHub rejects the writes of tokens without push access.
func (g *GitHub) Authorize(string) error {
	return nil
}

func (g *GitHub) Posts(token string) *application.PostService {
	store := gh.NewContentStore(gh.NewClient(token), g.cfg.GitHub.Owner, g.cfg.GitHub.Repo, g.cfg.GitHub.Branch)
	return NewPostService(store, g.cfg)
}

func (g *GitHub) Comments(token string) domain.CommentCounter {
	return gh.NewCommentCounter(gh.NewClient(token), g.cfg.GitHub.Owner, g.cfg.GitHub.Repo, g.cfg.Comments.Label)
}

func (g *GitHub) Close() error {
	return nil
}

// Local keeps the site in a SQLite file with the same revision rules as GitHub.
type Local struct {
	cfg   *config.Config
	db    db.Database
	store *persistence.SQLiteBlobStore
}

func OpenLocal(cfg *config.Config) (*Local, error) {
	var database db.Database = sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SQLite.Path))
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	log.Info().Str("path", cfg.SQLite.Path).Msg("Using local content store")

	return &Local{
		cfg:   cfg,
		db:    database,
		store: persistence.NewBlobStore(database.DB()),
	}, nil
}

// Authorize compares token with server.admin_token. Without a configured
// admin token nobody may write through the server.
func (l *Local) Authorize(token string) error {
	expected := l.cfg.Server.AdminToken
	if expected == "" {
		return fmt.Errorf("%w: server.admin_token is not set", ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (l *Local) Posts(string) *application.PostService {
	return NewPostService(l.store, l.cfg)
}

func (l *Local) Comments(string) domain.CommentCounter {
	return nil
}

// Store exposes the blob store for history queries.
func (l *Local) Store() *persistence.SQLiteBlobStore {
	return l.store
}

func (l *Local) Close() error {
	return l.db.Close()
}
