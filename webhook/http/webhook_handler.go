package http

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dfryer1193/gitpress/api"
	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

// IndexAudit is the outcome of checking the index after a push.
type IndexAudit struct {
	Checked  bool   `json:"checked"`
	Reason   string `json:"reason,omitempty"`
	Records  int    `json:"records"`
	Corrupt  bool   `json:"corrupt"`
	Revision string `json:"revision,omitempty"`
}

// WebhookHandler audits the post index whenever a push touches it, so edits
// made outside gitpress that break the index are noticed before the next
// publish refuses to write.
type WebhookHandler struct {
	webhookSecret []byte
	backend       backend.Backend
	readToken     string
	indexPath     string
	branch        string
}

func NewWebhookHandler(secret string, b backend.Backend, readToken string, indexPath string, branch string) *WebhookHandler {
	return &WebhookHandler{
		webhookSecret: []byte(secret),
		backend:       b,
		readToken:     readToken,
		indexPath:     strings.TrimPrefix(indexPath, "/"),
		branch:        branch,
	}
}

func (h *WebhookHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/webhook/git", h.HandleGitWebhook)
}

func (h *WebhookHandler) HandleGitWebhook(c *gin.Context) {
	payload, err := github.ValidatePayload(c.Request, h.webhookSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Error: "invalid payload"})
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Error: "invalid event"})
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		audit, err := h.auditIndex(c.Request.Context(), evt)
		if err != nil {
			log.Error().Err(err).Str("ref", evt.GetRef()).Msg("Index audit failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{Error: "error handling event"})
			return
		}
		c.JSON(http.StatusOK, audit)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *WebhookHandler) auditIndex(ctx context.Context, evt *github.PushEvent) (*IndexAudit, error) {
	branch := h.branch
	if branch == "" {
		branch = evt.GetRepo().GetDefaultBranch()
	}
	if branch != "" && evt.GetRef() != "refs/heads/"+branch {
		return &IndexAudit{Reason: fmt.Sprintf("push to %s", evt.GetRef())}, nil
	}

	touched, removed := h.indexChange(evt)
	if !touched {
		return &IndexAudit{Reason: "index not changed"}, nil
	}
	if removed {
		log.Error().Str("path", h.indexPath).Str("head", evt.GetHeadCommit().GetID()).Msg("Post index was deleted by a push")
	}

	idx, err := h.backend.Posts(h.readToken).List(ctx)
	if err != nil {
		return nil, err
	}

	audit := &IndexAudit{
		Checked:  true,
		Records:  len(idx.Records),
		Corrupt:  idx.Corrupt,
		Revision: idx.Revision,
	}
	if idx.Corrupt {
		log.Error().Str("path", h.indexPath).Str("revision", idx.Revision).Msg("Post index is unparseable after push; publishing is blocked until it is fixed")
	} else {
		log.Info().Str("path", h.indexPath).Int("records", audit.Records).Msg("Post index audited")
	}
	return audit, nil
}

// indexChange reports whether any pushed commit touched the index, and
// whether the last such commit removed it.
func (h *WebhookHandler) indexChange(evt *github.PushEvent) (touched bool, removed bool) {
	for _, commit := range evt.Commits {
		switch {
		case slices.Contains(commit.Removed, h.indexPath):
			touched, removed = true, true
		case slices.Contains(commit.Added, h.indexPath), slices.Contains(commit.Modified, h.indexPath):
			touched, removed = true, false
		}
	}
	return touched, removed
}
