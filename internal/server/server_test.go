package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/dfryer1193/gitpress/internal/config"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Backend: config.BackendSQLite,
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "site.db")},
		Site:    config.SiteConfig{Name: "test.blog", Lang: "sv"},
		Paths:   config.PathsConfig{Index: "/posts/posts.json", Archive: "/archive", Images: "/images"},
		Server:  config.ServerConfig{Addr: "127.0.0.1:0"},
		Feed:    config.FeedConfig{PageSize: 10},
	}
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		wantWebhook int
	}{
		{name: "Webhook disabled", secret: "", wantWebhook: http.StatusNotFound},
		{name: "Webhook enabled", secret: "s3cret", wantWebhook: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Server.WebhookSecret = tt.secret
			b, err := backend.Open(cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer b.Close()

			router := NewRouter(cfg, b)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/v1/", nil))
			if w.Code != http.StatusOK {
				t.Errorf("feed status = %d, want 200", w.Code)
			}

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook/git", nil))
			if w.Code != tt.wantWebhook {
				t.Errorf("webhook status = %d, want %d", w.Code, tt.wantWebhook)
			}
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	b, err := backend.Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, b, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
