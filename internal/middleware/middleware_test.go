package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireBearer(t *testing.T) {
	onlyAdmin := func(token string) error {
		if token != "admin" {
			return errors.New("not admin")
		}
		return nil
	}

	tests := []struct {
		name       string
		header     string
		authorize  func(string) error
		wantStatus int
		wantToken  string
	}{
		{name: "Missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "Empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "Valid", header: "Bearer ghp_abc", wantStatus: http.StatusOK, wantToken: "ghp_abc"},
		{name: "Scheme is case insensitive", header: "bearer ghp_abc", wantStatus: http.StatusOK, wantToken: "ghp_abc"},
		{name: "Authorized token", header: "Bearer admin", authorize: onlyAdmin, wantStatus: http.StatusOK, wantToken: "admin"},
		{name: "Refused token", header: "Bearer ghp_abc", authorize: onlyAdmin, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			router := gin.New()
			router.GET("/", RequireBearer(tt.authorize), func(c *gin.Context) {
				got = Token(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got != tt.wantToken {
				t.Errorf("token = %q, want %q", got, tt.wantToken)
			}
		})
	}
}

func TestHandlePanics(t *testing.T) {
	tests := []struct {
		name  string
		panic any
	}{
		{name: "Error value", panic: errors.New("boom")},
		{name: "String value", panic: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(LoggingMiddleware())
			router.Use(gin.CustomRecovery(HandlePanics()))
			router.GET("/", func(c *gin.Context) { panic(tt.panic) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", w.Code)
			}
			if !strings.Contains(w.Body.String(), "internal server error") {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}
