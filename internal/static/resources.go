package static

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	pathpkg "path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/config"
)

const (
	webDir              = "web"
	vapidKeyPlaceholder = `window.VAPID_PUBLIC_KEY="";`
)

//go:embed web
var webFiles embed.FS

// RegisterRoutes serves the embedded demo page and service worker for every
// path the API does not handle.
func RegisterRoutes(router *gin.Engine, cfg *config.Config) {
	router.NoRoute(newHandler(cfg))
}

func newHandler(cfg *config.Config) gin.HandlerFunc {
	webFS, err := fs.Sub(webFiles, webDir)
	if err != nil {
		return func(c *gin.Context) {
			c.String(http.StatusServiceUnavailable, "demo page is missing")
		}
	}

	fileServer := http.FileServer(http.FS(webFS))

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "reason": "not found"})
			return
		}

		requestPath := strings.TrimPrefix(pathpkg.Clean("/"+c.Request.URL.Path), "/")
		if requestPath == "" || requestPath == "index.html" {
			serveIndex(c, webFS, cfg)
			return
		}

		info, err := fs.Stat(webFS, requestPath)
		if err != nil || info.IsDir() {
			c.Status(http.StatusNotFound)
			return
		}

		if requestPath == "sw.js" {
			c.Header("Cache-Control", "no-cache")
		}
		c.Request.URL.Path = "/" + requestPath
		fileServer.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}

func serveIndex(c *gin.Context, webFS fs.FS, cfg *config.Config) {
	indexFile, err := webFS.Open("index.html")
	if err != nil {
		c.String(http.StatusServiceUnavailable, "demo entrypoint not found")
		return
	}
	defer indexFile.Close()

	content, err := io.ReadAll(indexFile)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to read demo entrypoint")
		return
	}

	html := strings.Replace(string(content), vapidKeyPlaceholder, fmt.Sprintf(`window.VAPID_PUBLIC_KEY=%q;`, cfg.VAPIDKeys.PublicKey), 1)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.String(http.StatusOK, html)
}
