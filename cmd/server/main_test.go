package main

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/config"
	"github.com/tariel-x/pushrelay/internal/handlers"
	"github.com/tariel-x/pushrelay/internal/models"
	"github.com/tariel-x/pushrelay/internal/push"
	"github.com/tariel-x/pushrelay/internal/store"
)

type okSender struct{}

func (okSender) Send(context.Context, models.Subscription, push.Message) (push.Result, error) {
	return push.Result{StatusCode: http.StatusCreated}, nil
}

func testRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		APIToken:    "s3cret",
		PushTTL:     models.DefaultTTL,
		CORSOrigins: origins,
		VAPIDKeys:   &config.VAPIDKeys{PublicKey: "BKey"},
	}
	return setupRouter(handlers.New(cfg, store.NewMemoryStore(), okSender{}, logger), cfg, logger)
}

func TestCORSReflectsAnyOriginWhenListEmpty(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/push/register", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://client.example" {
		t.Fatalf("expected origin to be reflected, got %q", got)
	}
}

func TestCORSAllowList(t *testing.T) {
	router := testRouter([]string{"https://allowed.example"})

	for origin, allowed := range map[string]bool{
		"https://allowed.example": true,
		"https://other.example":   false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin")
		if allowed && got != origin {
			t.Fatalf("expected %s to be allowed, got %q", origin, got)
		}
		if !allowed && got == origin {
			t.Fatalf("expected %s to be rejected", origin)
		}
	}
}

func TestRequestIDAssignedAndKept(t *testing.T) {
	router := testRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if id := rec.Header().Get(requestIDHeader); len(id) != 16 {
		t.Fatalf("expected generated 16 char request id, got %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if id := rec.Header().Get(requestIDHeader); id != "caller-id" {
		t.Fatalf("expected caller id to be kept, got %q", id)
	}
}

func TestRouterServesAPIAndDemoPage(t *testing.T) {
	router := testRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vapid-key", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("vapid key: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", rec.Code)
	}
}

func TestRedirectToHTTPS(t *testing.T) {
	tests := []struct {
		port string
		host string
		want string
	}{
		{port: "", host: "push.example", want: "https://push.example/api/health?x=1"},
		{port: "8443", host: "push.example:8080", want: "https://push.example:8443/api/health?x=1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://"+tt.host+"/api/health?x=1", nil)
		rec := httptest.NewRecorder()
		redirectToHTTPS(tt.port)(rec, req)

		if rec.Code != http.StatusMovedPermanently {
			t.Fatalf("expected 301, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}

func TestGenerateSelfSignedCert(t *testing.T) {
	certPEM, keyPEM, err := generateSelfSignedCert([]string{"127.0.0.1:8443", "push.local"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("load key pair: %v", err)
	}
	if cert.Leaf == nil {
		t.Fatalf("expected parsed leaf certificate")
	}
	if cert.Leaf.Subject.CommonName != "push.local" {
		t.Fatalf("unexpected common name %q", cert.Leaf.Subject.CommonName)
	}
	if len(cert.Leaf.IPAddresses) != 1 || cert.Leaf.IPAddresses[0].String() != "127.0.0.1" {
		t.Fatalf("unexpected ip addresses %v", cert.Leaf.IPAddresses)
	}
}

func TestNormalizeDomain(t *testing.T) {
	if got := normalizeDomain("  WWW.Push.Example "); got != "push.example" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTLSErrorFilterDropsUnconfiguredHosts(t *testing.T) {
	var captured []string
	filter := &tlsErrorFilter{writer: writerFunc(func(p []byte) (int, error) {
		captured = append(captured, string(p))
		return len(p), nil
	})}

	_, _ = filter.Write([]byte(`http: TLS handshake error: host "x" not configured`))
	_, _ = filter.Write([]byte("http: something else"))

	if len(captured) != 1 || captured[0] != "http: something else" {
		t.Fatalf("unexpected writes %v", captured)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
