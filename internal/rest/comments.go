package rest

import (
	"net/http"

	"github.com/dfryer1193/gitpress/api"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetCommentCount reports how many comments a post has. A failed search is
// not an error for the page, so the count is null instead.
func (a *Api) GetCommentCount(c *gin.Context) {
	postID := c.Query("id")
	if postID == "" {
		writeError(c, domain.ValidationError("id is required"))
		return
	}

	resp := api.CommentCount{ID: postID}
	counter := a.backend.Comments(a.settings.ReadToken)
	if counter == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	count, err := counter.CountComments(c.Request.Context(), postID)
	if err != nil {
		log.Warn().Err(err).Str("id", postID).Msg("Failed to count comments")
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Count = &count
	c.JSON(http.StatusOK, resp)
}
