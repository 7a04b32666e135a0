package store

import (
	"context"
	"sync"

	"github.com/tariel-x/pushrelay/internal/models"
)

type MemoryStore struct {
	mu  sync.RWMutex
	sub *models.Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Put(_ context.Context, sub models.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = &sub
	return nil
}

func (s *MemoryStore) Get(_ context.Context) (models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sub == nil {
		return models.Subscription{}, ErrNotFound
	}
	return *s.sub, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = nil
	return nil
}

func (s *MemoryStore) ClearIf(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil && s.sub.Endpoint == endpoint {
		s.sub = nil
	}
	return nil
}
