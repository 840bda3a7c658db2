package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dfryer1193/gitpress/blog/domain"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITPRESS_BACKEND", "sqlite")
	t.Setenv("GITPRESS_SQLITE_PATH", filepath.Join(t.TempDir(), "site.db"))
	t.Setenv("GITPRESS_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPublishListDelete(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	body := filepath.Join(dir, "a.md")
	if err := os.WriteFile(body, []byte("Hej *världen*"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "publish", "--title", "Första", "--date", "2025-01-10", "--tags", "resor, mat", "--format", "markdown", "--body-file", body)
	if err != nil {
		t.Fatalf("publish error = %v, output = %s", err, out)
	}
	if !strings.Contains(out, "Published /archive/2025/01/forsta.html") {
		t.Errorf("publish output = %q", out)
	}

	out, err = run(t, "publish", "--title", "Andra", "--date", "2025-02-01", "--tags", "", "--format", "html", "--body-file", "")
	if err != nil {
		t.Fatalf("second publish error = %v", err)
	}

	out, err = run(t, "list", "--query", "")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if strings.Index(out, "Andra") > strings.Index(out, "Första") || !strings.Contains(out, "Första") {
		t.Errorf("list output = %q, want Andra before Första", out)
	}

	out, err = run(t, "list", "--query", "resor")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if strings.Contains(out, "Andra") || !strings.Contains(out, "Första") {
		t.Errorf("filtered list output = %q", out)
	}

	out, err = run(t, "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if strings.Count(out, "Update posts.json with") != 2 {
		t.Errorf("history output = %q", out)
	}

	out, err = run(t, "delete", "/archive/2025/01/forsta.html", "--yes")
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if !strings.Contains(out, "Deleted /archive/2025/01/forsta.html (1 posts left)") {
		t.Errorf("delete output = %q", out)
	}

	_, err = run(t, "delete", "/archive/2025/01/forsta.html", "--yes")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestUpload(t *testing.T) {
	setupEnv(t)
	img := filepath.Join(t.TempDir(), "Katt.PNG")
	if err := os.WriteFile(img, []byte{0x89, 'P', 'N', 'G'}, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "upload", img)
	if err != nil {
		t.Fatalf("upload error = %v", err)
	}
	if !strings.Contains(out, `<img src="/images/`) || !strings.Contains(out, `-katt.png" alt="" />`) {
		t.Errorf("upload output = %q", out)
	}
}

func TestToken(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "token", "save", "ghp_abc"); err != nil {
		t.Fatalf("token save error = %v", err)
	}

	cfgDir, _ := os.UserConfigDir()
	data, err := os.ReadFile(filepath.Join(cfgDir, "gitpress", "token"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.TrimSpace(string(data)) != "ghp_abc" {
		t.Errorf("token file = %q", data)
	}

	if _, err := run(t, "token", "clear"); err != nil {
		t.Fatalf("token clear error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfgDir, "gitpress", "token")); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}
