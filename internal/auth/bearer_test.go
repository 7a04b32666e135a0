package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(token string, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/send", BearerToken(token), func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})
	return router
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		reached bool
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", status: http.StatusForbidden},
		{name: "wrong scheme", header: "Basic s3cret", status: http.StatusForbidden},
		{name: "bare token", header: "s3cret", status: http.StatusForbidden},
		{name: "empty bearer", header: "Bearer ", status: http.StatusForbidden},
		{name: "valid", header: "Bearer s3cret", status: http.StatusOK, reached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := newRouter("s3cret", &reached)

			req := httptest.NewRequest(http.MethodPost, "/send", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if reached != tt.reached {
				t.Fatalf("handler reached = %v, want %v", reached, tt.reached)
			}
		})
	}
}

func TestBearerTokenEmptySecretRejectsEverything(t *testing.T) {
	reached := false
	router := newRouter("", &reached)

	req := httptest.NewRequest(http.MethodPost, "/send", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || reached {
		t.Fatalf("expected 403 without reaching handler, got %d reached=%v", rec.Code, reached)
	}
}
