package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/google/go-github/v75/github"
)

func setup(t *testing.T) (*http.ServeMux, *github.Client) {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	client.BaseURL, _ = url.Parse(server.URL + "/")
	return mux, client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestContentStore_FetchBlob(t *testing.T) {
	mux, client := setup(t)
	text := "Hej å ä ö"

	mux.HandleFunc("GET /repos/owner/site/contents/posts/posts.json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q, want main", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     "posts/posts.json",
			"sha":      "abc123",
			"content":  base64.StdEncoding.EncodeToString([]byte(text)),
		})
	})

	store := NewContentStore(client, "owner", "site", "main")
	blob, err := store.FetchBlob(context.Background(), "/posts/posts.json")
	if err != nil {
		t.Fatalf("FetchBlob() error = %v", err)
	}
	if string(blob.Content) != text {
		t.Errorf("Content = %q, want %q", blob.Content, text)
	}
	if blob.Revision != "abc123" {
		t.Errorf("Revision = %q, want abc123", blob.Revision)
	}
	if blob.Path != "/posts/posts.json" {
		t.Errorf("Path = %q, want /posts/posts.json", blob.Path)
	}
}

func TestContentStore_FetchBlobLargeFile(t *testing.T) {
	mux, client := setup(t)

	mux.HandleFunc("GET /repos/owner/site/contents/posts/posts.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "none",
			"path":     "posts/posts.json",
			"sha":      "big",
			"content":  "",
		})
	})
	mux.HandleFunc("GET /repos/owner/site/git/blobs/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "[]")
	})

	store := NewContentStore(client, "owner", "site", "")
	blob, err := store.FetchBlob(context.Background(), "/posts/posts.json")
	if err != nil {
		t.Fatalf("FetchBlob() error = %v", err)
	}
	if string(blob.Content) != "[]" || blob.Revision != "big" {
		t.Errorf("blob = %q@%s, want []@big", blob.Content, blob.Revision)
	}
}

func TestContentStore_WriteBlob(t *testing.T) {
	tests := []struct {
		name     string
		revision string
	}{
		{name: "Create", revision: ""},
		{name: "Update", revision: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, client := setup(t)
			content := []byte("<p>Hej å ä ö</p>")

			mux.HandleFunc("PUT /repos/owner/site/contents/archive/2025/01/a.html", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Message string  `json:"message"`
					Content []byte  `json:"content"`
					SHA     *string `json:"sha"`
					Branch  *string `json:"branch"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if string(body.Content) != string(content) {
					t.Errorf("content = %q, want %q", body.Content, content)
				}
				if body.Message != "Add post a" {
					t.Errorf("message = %q", body.Message)
				}
				if tt.revision == "" && body.SHA != nil {
					t.Errorf("sha = %q, want none for a create", *body.SHA)
				}
				if tt.revision != "" && (body.SHA == nil || *body.SHA != tt.revision) {
					t.Errorf("sha = %v, want %q", body.SHA, tt.revision)
				}
				if body.Branch == nil || *body.Branch != "main" {
					t.Errorf("branch = %v, want main", body.Branch)
				}
				writeJSON(w, http.StatusOK, map[string]any{"content": map[string]any{"sha": "new"}})
			})

			store := NewContentStore(client, "owner", "site", "main")
			rev, err := store.WriteBlob(context.Background(), "/archive/2025/01/a.html", content, "Add post a", tt.revision)
			if err != nil {
				t.Fatalf("WriteBlob() error = %v", err)
			}
			if rev != "new" {
				t.Errorf("revision = %q, want new", rev)
			}
		})
	}
}

func TestContentStore_DeleteBlob(t *testing.T) {
	mux, client := setup(t)

	mux.HandleFunc("DELETE /repos/owner/site/contents/archive/2025/01/a.html", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SHA string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.SHA != "abc" {
			t.Errorf("sha = %q, want abc", body.SHA)
		}
		writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]any{"sha": "c1"}})
	})

	store := NewContentStore(client, "owner", "site", "")
	if err := store.DeleteBlob(context.Background(), "/archive/2025/01/a.html", "Delete post", "abc"); err != nil {
		t.Fatalf("DeleteBlob() error = %v", err)
	}
}

func TestContentStore_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    error
	}{
		{name: "Not found", status: http.StatusNotFound, message: "Not Found", want: domain.ErrNotFound},
		{name: "Stale sha", status: http.StatusConflict, message: "is at 123 but expected 456", want: domain.ErrConflict},
		{name: "Create over existing file", status: http.StatusUnprocessableEntity, message: `Invalid request.\n\n"sha" wasn't supplied.`, want: domain.ErrConflict},
		{name: "Other validation failure", status: http.StatusUnprocessableEntity, message: "Invalid path", want: domain.ErrStore},
		{name: "Server error", status: http.StatusBadGateway, message: "Bad Gateway", want: domain.ErrStore},
		{name: "Unauthorized", status: http.StatusUnauthorized, message: "Bad credentials", want: domain.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, client := setup(t)
			mux.HandleFunc("PUT /repos/owner/site/contents/x.html", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"message": tt.message})
			})

			store := NewContentStore(client, "owner", "site", "")
			_, err := store.WriteBlob(context.Background(), "/x.html", []byte("x"), "m", "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("WriteBlob() error = %v, want %v", err, tt.want)
			}

			var storeErr *domain.StoreError
			if !errors.As(err, &storeErr) {
				t.Fatalf("error %T is not a *domain.StoreError", err)
			}
			if storeErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", storeErr.Status, tt.status)
			}
			if storeErr.Message != tt.message {
				t.Errorf("Message = %q, want %q", storeErr.Message, tt.message)
			}
		})
	}
}

func TestApiPath(t *testing.T) {
	if got := apiPath("/posts/posts.json"); got != "posts/posts.json" {
		t.Errorf("apiPath() = %q", got)
	}
	if got := apiPath("images/a.png"); got != "images/a.png" {
		t.Errorf("apiPath() = %q", got)
	}
}

func TestGetRepoFullName(t *testing.T) {
	store := NewContentStore(github.NewClient(nil), "owner", "site", "")
	if got := store.GetRepoFullName(); got != "owner/site" {
		t.Errorf("GetRepoFullName() = %q", got)
	}
}
