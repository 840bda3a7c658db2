package application

import (
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/gitpress/blog/domain"
)

func TestPageRenderer_Render(t *testing.T) {
	renderer := NewPageRenderer(SiteConfig{
		Name:         "cornelia.love",
		Lang:         "sv",
		Repo:         "cornelia/site",
		CommentLabel: "comments",
		CommentTheme: "github-light",
	})

	page, err := renderer.Render(domain.PostRecord{
		ID:           "/archive/2025/01/fika.html",
		Title:        "Fika & <kaffe>",
		Date:         "2025-01-10",
		RenderedBody: "<p>Kanelbullar</p>",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	html := string(page)
	for _, want := range []string{
		`<html lang="sv">`,
		"<h1>Fika &amp; &lt;kaffe&gt;</h1>",
		"<p>Kanelbullar</p>",
		"10 januari 2025",
		"Publicerat",
		`repo="cornelia/site"`,
		`issue-term="/archive/2025/01/fika.html"`,
		`label="comments"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestFormatLongDate(t *testing.T) {
	date := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		lang     string
		expected string
	}{
		{lang: "sv", expected: "1 februari 2025"},
		{lang: "sv-SE", expected: "1 februari 2025"},
		{lang: "en", expected: "February 1, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			if result := formatLongDate(date, tt.lang); result != tt.expected {
				t.Errorf("formatLongDate(%v, %q) = %q, want %q", date, tt.lang, result, tt.expected)
			}
		})
	}

	if result := formatLongDate(time.Time{}, "sv"); result != "" {
		t.Errorf("formatLongDate(zero) = %q, want empty", result)
	}
}
