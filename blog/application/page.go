package application

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dfryer1193/gitpress/blog/domain"
)

// SiteConfig describes the static site the pages are generated for.
type SiteConfig struct {
	Name         string
	Lang         string
	Repo         string // owner/repo hosting the comment threads
	CommentLabel string
	CommentTheme string
}

var pageTemplate = template.Must(template.New("post").Parse(`<!doctype html>
<html lang="{{.Site.Lang}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}} — {{.Site.Name}}</title>
  <link rel="stylesheet" href="/style.css" />
</head>
<body>
  <div id="header"></div>
  <main class="container post-page">
    <article class="post">
      <header class="post-head">
        <h1>{{.Title}}</h1>
        <p class="meta-line">{{.PublishedLabel}} <span class="dot">|</span> <time datetime="{{.Date}}">{{.DateLabel}}</time></p>
      </header>
      <article class="post-content">
        {{.Body}}
      </article>
      <section class="post-comments">
        <script src="https://utteranc.es/client.js"
                repo="{{.Site.Repo}}"
                issue-term="{{.ID}}"
                label="{{.Site.CommentLabel}}"
                theme="{{.Site.CommentTheme}}"
                crossorigin="anonymous"
                async></script>
      </section>
    </article>
  </main>
  <div id="footer"></div>
  <script src="/app.js" defer></script>
</body>
</html>
`))

type pageData struct {
	Site           SiteConfig
	ID             string
	Title          string
	Date           string
	DateLabel      string
	PublishedLabel string
	Body           template.HTML
}

// PageRenderer renders the full HTML document stored for a post.
type PageRenderer struct {
	site SiteConfig
}

func NewPageRenderer(site SiteConfig) *PageRenderer {
	if site.Lang == "" {
		site.Lang = "sv"
	}
	return &PageRenderer{site: site}
}

// Render wraps the post body in the page shell. The body is trusted author
// markup and is inserted as is; everything else is escaped.
func (r *PageRenderer) Render(rec domain.PostRecord) ([]byte, error) {
	data := pageData{
		Site:           r.site,
		ID:             rec.ID,
		Title:          rec.Title,
		Date:           rec.Date,
		DateLabel:      formatLongDate(rec.PublishedOn(), r.site.Lang),
		PublishedLabel: publishedLabel(r.site.Lang),
		Body:           template.HTML(rec.RenderedBody),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page for %s: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

var swedishMonths = [...]string{
	"januari", "februari", "mars", "april", "maj", "juni",
	"juli", "augusti", "september", "oktober", "november", "december",
}

func formatLongDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	if strings.HasPrefix(lang, "sv") {
		return fmt.Sprintf("%d %s %d", t.Day(), swedishMonths[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}

func publishedLabel(lang string) string {
	if strings.HasPrefix(lang, "sv") {
		return "Publicerat"
	}
	return "Published"
}
