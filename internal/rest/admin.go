package rest

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dfryer1193/gitpress/api"
	"github.com/dfryer1193/gitpress/blog/application"
	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/dfryer1193/gitpress/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

func (a *Api) PublishPost(c *gin.Context) {
	postProto := &api.PostProto{}
	if err := c.ShouldBindJSON(postProto); err != nil {
		writeError(c, domain.ValidationError("%v", err))
		return
	}

	format, err := application.ParseBodyFormat(postProto.Format)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := a.backend.Posts(middleware.Token(c)).Publish(c.Request.Context(), application.PublishRequest{
		Title:  postProto.Title,
		Date:   postProto.Date,
		Tags:   application.NormalizeTags(postProto.Tags),
		Body:   postProto.Body,
		Format: format,
		ID:     postProto.ID,
		Slug:   postProto.Slug,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, api.PublishResponse{
		Post:     api.NewPost(result.Record),
		Created:  result.Created,
		Revision: result.Index.Revision,
	})
}

// DeletePost requires confirm=true so a stray request cannot remove a post.
func (a *Api) DeletePost(c *gin.Context) {
	postID := c.Query("id")
	if postID == "" {
		writeError(c, domain.ValidationError("id is required"))
		return
	}
	if c.Query("confirm") != "true" {
		writeError(c, domain.ValidationError("deleting %s requires confirm=true", postID))
		return
	}

	result, err := a.backend.Posts(middleware.Token(c)).Delete(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DeleteResponse{
		ID:             result.ID,
		ContentDeleted: result.ContentDeleted,
		Revision:       result.Index.Revision,
	})
}

func (a *Api) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, domain.ValidationError("multipart field \"file\" is required"))
		return
	}
	if header.Size > maxImageBytes {
		writeError(c, domain.ValidationError("image %s is larger than %d bytes", header.Filename, maxImageBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	asset, err := a.backend.Posts(middleware.Token(c)).UploadImage(c.Request.Context(), application.ImageUpload{
		Name:    header.Filename,
		Content: content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.Image{
		Path:     asset.Path,
		Name:     asset.Name,
		Size:     asset.Size,
		Revision: asset.Revision,
		Snippet:  asset.Snippet(),
	})
}
