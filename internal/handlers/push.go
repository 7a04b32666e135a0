package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/models"
	"github.com/tariel-x/pushrelay/internal/push"
	"github.com/tariel-x/pushrelay/internal/store"
)

type simpleSendRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type detailedSendRequest struct {
	Subscription *models.Subscription `json:"subscription"`
	Notification *models.Notification `json:"notification"`
}

func fail(c *gin.Context, status int, reason string) {
	c.JSON(status, gin.H{"ok": false, "reason": reason})
}

func (h *Handlers) RegisterSubscription(c *gin.Context) {
	var sub models.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.store.Put(c.Request.Context(), sub); err != nil {
		if errors.Is(err, models.ErrInvalidSubscription) {
			h.logger.Info("rejected subscription", "error", err)
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to store subscription", "error", err)
		fail(c, http.StatusInternalServerError, "failed to store subscription")
		return
	}

	h.logger.Info("subscription registered", "endpoint", sub.ShortEndpoint())
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handlers) GetLastSubscription(c *gin.Context) {
	sub, err := h.store.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "no subscription registered")
			return
		}
		h.logger.Error("failed to load subscription", "error", err)
		fail(c, http.StatusInternalServerError, "failed to load subscription")
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handlers) DeleteLastSubscription(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		h.logger.Error("failed to clear subscription", "error", err)
		fail(c, http.StatusInternalServerError, "failed to clear subscription")
		return
	}

	h.logger.Info("subscription cleared")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SendSimple delivers to the stored subscription. A gone endpoint is removed
// from the store unless a newer registration has replaced it.
func (h *Handlers) SendSimple(c *gin.Context) {
	ctx := c.Request.Context()

	sub, err := h.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusBadRequest, "no subscription registered")
			return
		}
		h.logger.Error("failed to load subscription", "error", err)
		fail(c, http.StatusInternalServerError, "failed to load subscription")
		return
	}

	var req simpleSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	notification := models.Notification{Title: req.Title, Body: req.Body}
	if err := notification.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deliver(c, sub, notification)
	if err != nil {
		if push.IsGone(err) {
			if clearErr := h.store.ClearIf(ctx, sub.Endpoint); clearErr != nil {
				h.logger.Error("failed to clear gone subscription", "error", clearErr)
			}
			h.logger.Info("subscription gone, cleared", "endpoint", sub.ShortEndpoint(), "status", push.StatusCode(err))
		}
		h.deliveryFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": result.StatusCode})
}

// SendDetailed delivers to a caller-supplied subscription and never touches
// the store.
func (h *Handlers) SendDetailed(c *gin.Context) {
	var req detailedSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Subscription == nil {
		fail(c, http.StatusBadRequest, "subscription is required")
		return
	}
	if req.Notification == nil {
		fail(c, http.StatusBadRequest, "notification is required")
		return
	}
	if err := req.Subscription.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Notification.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deliver(c, *req.Subscription, *req.Notification)
	if err != nil {
		if push.IsGone(err) {
			h.logger.Info("caller subscription gone", "endpoint", req.Subscription.ShortEndpoint(), "status", push.StatusCode(err))
		}
		h.deliveryFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": result.StatusCode})
}

func (h *Handlers) deliver(c *gin.Context, sub models.Subscription, n models.Notification) (push.Result, error) {
	payload, err := n.Payload()
	if err != nil {
		return push.Result{}, err
	}

	return h.sender.Send(c.Request.Context(), sub, push.Message{
		Payload: payload,
		TTL:     n.TTLOr(h.config.PushTTL),
		Urgency: n.Urgency,
		Topic:   n.Topic,
	})
}

func (h *Handlers) deliveryFailed(c *gin.Context, err error) {
	if errors.Is(err, push.ErrPayloadTooLarge) {
		h.logger.Info("rejected oversized notification", "error", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	status := push.StatusCode(err)

	if push.IsGone(err) {
		c.JSON(http.StatusGone, gin.H{"ok": false, "reason": "subscription is no longer valid", "status": status})
		return
	}

	h.logger.Error("push delivery failed", "error", err, "status", status)
	_ = c.Error(err)

	resp := gin.H{"ok": false, "reason": "push delivery failed"}
	if status != 0 {
		resp["status"] = status
	}
	c.JSON(http.StatusInternalServerError, resp)
}
