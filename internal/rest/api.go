package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/gitpress/api"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/dfryer1193/gitpress/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Settings struct {
	// ReadToken is used for public reads; empty reads anonymously.
	ReadToken string
	Lang      string
	PageSize  int
}

type Api struct {
	backend  backend.Backend
	settings Settings
}

func NewApi(router gin.IRouter, b backend.Backend, settings Settings) *Api {
	a := &Api{backend: b, settings: settings}

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", a.GetPosts)
		postsV1.GET("/meta", a.GetMeta)
		postsV1.GET("/post", a.GetPost)
	}

	adminV1 := router.Group("admin/v1", middleware.RequireBearer(b.Authorize))
	{
		adminV1.POST("/posts", a.PublishPost)
		adminV1.DELETE("/posts", a.DeletePost)
		adminV1.POST("/images", a.UploadImage)
	}

	commentsV1 := router.Group("comments/v1")
	{
		commentsV1.GET("/count", a.GetCommentCount)
	}

	return a
}

// statusFor maps the error taxonomy onto HTTP. NotFound and Conflict are
// checked before ErrStore because every StoreError matches ErrStore.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCorruptIndex), errors.Is(err, domain.ErrInvariantViolation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := api.Error{Error: err.Error()}

	var pubErr *domain.PublicationError
	if errors.As(err, &pubErr) {
		body.Step = string(pubErr.Step)
		body.Orphaned = pubErr.Orphaned()
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
