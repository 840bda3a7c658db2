package middleware

import (
	"net/http"
	"strings"

	"github.com/dfryer1193/gitpress/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const tokenKey = "gitpress.token"

// RequireBearer rejects requests without an Authorization bearer token or
// whose token authorize refuses, and stores the token for handlers. A nil
// authorize leaves authorization to the content store the token is passed to.
func RequireBearer(authorize func(token string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.Header("WWW-Authenticate", `Bearer realm="gitpress"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "bearer token required"})
			return
		}
		if authorize != nil {
			if err := authorize(token); err != nil {
				log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected admin request")
				c.Header("WWW-Authenticate", `Bearer realm="gitpress", error="invalid_token"`)
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: err.Error()})
				return
			}
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// Token returns the bearer token stored by RequireBearer, or "".
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
