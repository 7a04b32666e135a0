package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/limited", RateLimit(2, slog.New(slog.NewTextHandler(io.Discard, nil))), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", RateLimit(0, slog.New(slog.NewTextHandler(io.Discard, nil))), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestLimiterStoreEvictsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newLimiterStore(2)
	s.now = func() time.Time { return now }

	s.get("10.0.0.1")
	s.get("10.0.0.2")
	if len(s.visitors) != 2 {
		t.Fatalf("expected 2 visitors, got %d", len(s.visitors))
	}

	now = now.Add(limiterIdle / 2)
	s.get("10.0.0.2")

	now = now.Add(limiterIdle/2 + time.Second)
	s.get("10.0.0.3")

	if _, ok := s.visitors["10.0.0.1"]; ok {
		t.Fatalf("idle client was not evicted")
	}
	if _, ok := s.visitors["10.0.0.2"]; !ok {
		t.Fatalf("recently seen client was evicted")
	}
	if len(s.visitors) != 2 {
		t.Fatalf("expected 2 visitors after sweep, got %d", len(s.visitors))
	}
}
