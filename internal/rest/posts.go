package rest

import (
	"net/http"
	"strconv"

	"github.com/dfryer1193/gitpress/api"
	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/gin-gonic/gin"
)

func (a *Api) feed(c *gin.Context) (*application.Feed, bool) {
	idx, err := a.backend.Posts(a.settings.ReadToken).List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return application.NewFeed(idx.Records, a.settings.Lang), true
}

// GetPosts serves one feed page. Query: month and tag may repeat, q filters
// by text, page is 1-based.
func (a *Api) GetPosts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, domain.ValidationError("page %q is not a number", raw))
			return
		}
		page = n
	}

	feed, ok := a.feed(c)
	if !ok {
		return
	}

	result := feed.Query(application.FeedQuery{
		Months:   c.QueryArray("month"),
		Tags:     c.QueryArray("tag"),
		Text:     c.Query("q"),
		Page:     page,
		PageSize: a.settings.PageSize,
	})

	c.JSON(http.StatusOK, api.FeedPage{
		Posts:      api.NewPosts(result.Items),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	})
}

func (a *Api) GetMeta(c *gin.Context) {
	feed, ok := a.feed(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.Meta{Months: feed.Months(), Tags: feed.Tags()})
}

func (a *Api) GetPost(c *gin.Context) {
	postID := c.Query("id")
	if postID == "" {
		writeError(c, domain.ValidationError("id is required"))
		return
	}

	rec, err := a.backend.Posts(a.settings.ReadToken).Get(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPost(*rec))
}
