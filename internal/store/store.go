package store

import (
	"context"
	"errors"

	"github.com/tariel-x/pushrelay/internal/models"
)

var ErrNotFound = errors.New("no subscription stored")

// Store holds at most one subscription. A Put replaces whatever was there.
type Store interface {
	Put(ctx context.Context, sub models.Subscription) error
	Get(ctx context.Context) (models.Subscription, error)
	Clear(ctx context.Context) error
	// ClearIf empties the slot only while it still holds endpoint, so a
	// registration that replaced it in the meantime survives.
	ClearIf(ctx context.Context, endpoint string) error
}
