package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/config"
	"github.com/tariel-x/pushrelay/internal/handlers"
	"github.com/tariel-x/pushrelay/internal/static"
)

func setupRouter(h *handlers.Handlers, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), slogGinLogger(logger), corsMiddleware(cfg.CORSOrigins))

	h.RegisterRoutes(router)
	static.RegisterRoutes(router, cfg)

	return router
}

// corsMiddleware reflects any origin when the allow-list is empty.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = origins
	}
	return cors.New(corsConfig)
}
