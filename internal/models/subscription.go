package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidSubscription = errors.New("invalid subscription")

type SubscriptionKeys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a browser-issued push registration.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// Validate reports which required member is missing, wrapped in
// ErrInvalidSubscription.
func (s Subscription) Validate() error {
	switch {
	case strings.TrimSpace(s.Endpoint) == "":
		return fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	case strings.TrimSpace(s.Keys.P256DH) == "":
		return fmt.Errorf("%w: keys.p256dh is required", ErrInvalidSubscription)
	case strings.TrimSpace(s.Keys.Auth) == "":
		return fmt.Errorf("%w: keys.auth is required", ErrInvalidSubscription)
	}
	return nil
}

// ShortEndpoint is safe for logs.
func (s Subscription) ShortEndpoint() string {
	runes := []rune(s.Endpoint)
	if len(runes) <= 50 {
		return s.Endpoint
	}
	return string(runes[:50]) + "..."
}

// PushSubscription is the persisted form of Subscription.
type PushSubscription struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Endpoint  string    `gorm:"type:text;not null"`
	P256DH    string    `gorm:"column:p256dh;type:text;not null"`
	Auth      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (p *PushSubscription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func NewPushSubscription(s Subscription) *PushSubscription {
	return &PushSubscription{
		Endpoint: s.Endpoint,
		P256DH:   s.Keys.P256DH,
		Auth:     s.Keys.Auth,
	}
}

func (p *PushSubscription) Subscription() Subscription {
	return Subscription{
		Endpoint: p.Endpoint,
		Keys: SubscriptionKeys{
			P256DH: p.P256DH,
			Auth:   p.Auth,
		},
	}
}
