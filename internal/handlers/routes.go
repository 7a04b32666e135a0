package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/auth"
)

// RegisterRoutes mounts the relay API under /api.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	limit := RateLimit(h.config.RateLimitPerMinute, h.logger)

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/vapid-key", h.GetVAPIDPublicKey)
		api.POST("/push/register", limit, h.RegisterSubscription)
		api.GET("/push/last-subscription", h.GetLastSubscription)
		api.DELETE("/push/last-subscription", h.DeleteLastSubscription)
	}

	protected := api.Group("/push")
	protected.Use(limit, auth.BearerToken(h.config.APIToken))
	{
		protected.POST("/simple", h.SendSimple)
		protected.POST("/send", h.SendDetailed)
	}
}
