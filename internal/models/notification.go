package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const DefaultTTL = 60

var ErrInvalidNotification = errors.New("invalid notification")

type Urgency string

const (
	UrgencyVeryLow Urgency = "very-low"
	UrgencyLow     Urgency = "low"
	UrgencyNormal  Urgency = "normal"
	UrgencyHigh    Urgency = "high"
)

func (u Urgency) Valid() bool {
	switch u {
	case "", UrgencyVeryLow, UrgencyLow, UrgencyNormal, UrgencyHigh:
		return true
	}
	return false
}

// Notification is built per request and never stored.
type Notification struct {
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	TTL     *int    `json:"ttl,omitempty"`
	Urgency Urgency `json:"urgency,omitempty"`
	Topic   string  `json:"topic,omitempty"`
}

func (n Notification) Validate() error {
	switch {
	case strings.TrimSpace(n.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidNotification)
	case strings.TrimSpace(n.Body) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidNotification)
	case n.TTL != nil && *n.TTL < 0:
		return fmt.Errorf("%w: ttl must not be negative", ErrInvalidNotification)
	case !n.Urgency.Valid():
		return fmt.Errorf("%w: unknown urgency %q", ErrInvalidNotification, n.Urgency)
	case len(n.Topic) > 32:
		return fmt.Errorf("%w: topic longer than 32 characters", ErrInvalidNotification)
	}
	return nil
}

// TTLOr returns the requested TTL or fallback when none was given.
func (n Notification) TTLOr(fallback int) int {
	if n.TTL == nil {
		return fallback
	}
	return *n.TTL
}

// Payload is what the service worker receives.
func (n Notification) Payload() ([]byte, error) {
	return json.Marshal(struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}{
		Title: n.Title,
		Body:  n.Body,
	})
}
