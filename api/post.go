package api

import "github.com/dfryer1193/gitpress/blog/domain"

// PostProto is the body of a publish request. ID is set when editing.
type PostProto struct {
	ID     string   `json:"id"`
	Title  string   `json:"title" binding:"required"`
	Date   string   `json:"date"`
	Tags   []string `json:"tags"`
	Body   string   `json:"body"`
	Format string   `json:"format"`
	Slug   string   `json:"slug"`
}

type Post struct {
	ID      string   `json:"url"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags"`
	Excerpt string   `json:"excerpt"`
	Content string   `json:"contentHtml"`
}

func NewPost(rec domain.PostRecord) Post {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return Post{
		ID:      rec.ID,
		Title:   rec.Title,
		Date:    rec.Date,
		Tags:    tags,
		Excerpt: rec.Excerpt,
		Content: rec.RenderedBody,
	}
}

func NewPosts(records []domain.PostRecord) []Post {
	posts := make([]Post, len(records))
	for i, r := range records {
		posts[i] = NewPost(r)
	}
	return posts
}

type PublishResponse struct {
	Post     Post   `json:"post"`
	Created  bool   `json:"created"`
	Revision string `json:"indexRevision"`
}

type DeleteResponse struct {
	ID             string `json:"id"`
	ContentDeleted bool   `json:"contentDeleted"`
	Revision       string `json:"indexRevision"`
}

type FeedPage struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}

// Meta lists the filter values the feed offers.
type Meta struct {
	Months []string `json:"months"`
	Tags   []string `json:"tags"`
}
