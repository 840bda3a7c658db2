package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendGitHub = "github"
	BackendSQLite = "sqlite"

	envPrefix = "GITPRESS"
	fileName  = "gitpress"
)

type Config struct {
	Backend  string         `mapstructure:"backend"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Site     SiteConfig     `mapstructure:"site"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Comments CommentsConfig `mapstructure:"comments"`
	Server   ServerConfig   `mapstructure:"server"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Index    IndexConfig    `mapstructure:"index"`
	Log      LogConfig      `mapstructure:"log"`
}

type GitHubConfig struct {
	Owner  string `mapstructure:"owner"`
	Repo   string `mapstructure:"repo"`
	Branch string `mapstructure:"branch"`
	// Token is used for public reads by the server; admin calls bring their own.
	Token string `mapstructure:"token"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type SiteConfig struct {
	Name string `mapstructure:"name"`
	Lang string `mapstructure:"lang"`
}

type PathsConfig struct {
	Index   string `mapstructure:"index"`
	Archive string `mapstructure:"archive"`
	Images  string `mapstructure:"images"`
}

type CommentsConfig struct {
	Label string `mapstructure:"label"`
	Theme string `mapstructure:"theme"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AdminToken guards the admin routes of the sqlite backend. The github
	// backend leaves authorization to GitHub.
	AdminToken string `mapstructure:"admin_token"`
}

type FeedConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type IndexConfig struct {
	AllowCorruptOverwrite bool `mapstructure:"allow_corrupt_overwrite"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Pretty     bool   `mapstructure:"pretty"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up. Callers may bind flags before Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "gitpress"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendGitHub)
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.branch", "")
	v.SetDefault("github.token", "")
	v.SetDefault("sqlite.path", "./gitpress.db")
	v.SetDefault("site.name", "cornelia.love")
	v.SetDefault("site.lang", "sv")
	v.SetDefault("paths.index", "/posts/posts.json")
	v.SetDefault("paths.archive", "/archive")
	v.SetDefault("paths.images", "/images")
	v.SetDefault("comments.label", "comments")
	v.SetDefault("comments.theme", "github-light")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.webhook_secret", "")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("feed.page_size", 10)
	v.SetDefault("index.allow_corrupt_overwrite", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
}

// Load reads the config file, if any, and decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return errors.New("config: github.owner and github.repo are required for the github backend")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("config: sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q, want %s or %s", c.Backend, BackendGitHub, BackendSQLite)
	}

	for key, p := range map[string]string{"paths.index": c.Paths.Index, "paths.archive": c.Paths.Archive, "paths.images": c.Paths.Images} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("config: %s must start with /, got %q", key, p)
		}
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("config: feed.page_size must be positive, got %d", c.Feed.PageSize)
	}
	return nil
}

// RepoFullName returns owner/repo, the form the comment widget expects.
func (c *Config) RepoFullName() string {
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return ""
	}
	return c.GitHub.Owner + "/" + c.GitHub.Repo
}
